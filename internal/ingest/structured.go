package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

// Completer is the text-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Source records which path produced a record.
type Source string

const (
	SourceStructured Source = "structured"
	SourceFallback   Source = "fallback"
	SourceEmpty      Source = "empty"
)

// Outcome is the result of extracting one device's features.
type Outcome struct {
	Record *features.Record
	Source Source
	// Cause is the absorbed failure that forced a fallback or empty record, if any.
	Cause error
}

// StructuredConfig holds structured extractor settings.
type StructuredConfig struct {
	DeviceType     string
	MinTextLength  int
	MaxPromptChars int
}

// StructuredExtractor asks the completion collaborator for the eight-category JSON
// object and falls back to the keyword classifier when that fails.
type StructuredExtractor struct {
	completer  Completer
	classifier *Classifier
	logger     *observability.Logger
	cfg        StructuredConfig
}

// NewStructuredExtractor creates an extractor. A nil completer means every document
// goes straight to the classifier.
func NewStructuredExtractor(completer Completer, classifier *Classifier, logger *observability.Logger, cfg StructuredConfig) *StructuredExtractor {
	if cfg.DeviceType == "" {
		cfg.DeviceType = "refrigeration controller"
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 100
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 8000
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &StructuredExtractor{
		completer:  completer,
		classifier: classifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// Extract builds a record for device from normalized document text. It never fails:
// short text yields an all-Missing record, and collaborator or parse failures fall back
// to the classifier over the document text.
func (e *StructuredExtractor) Extract(ctx context.Context, device, text string) Outcome {
	if len(strings.TrimSpace(text)) < e.cfg.MinTextLength {
		return Outcome{Record: EmptyRecord(device), Source: SourceEmpty}
	}
	if e.completer == nil {
		return e.fallback(device, text, nil)
	}

	response, err := e.completer.Complete(ctx, e.Prompt(text))
	if err != nil {
		e.logger.Warn().Str("device", device).Err(err).Msg("Completion failed, using keyword fallback")
		return e.fallback(device, text, err)
	}

	record, err := ParseStructuredResponse(device, response)
	if err != nil {
		e.logger.Warn().Str("device", device).Err(err).Msg("Completion was not valid JSON, using keyword fallback")
		return e.fallback(device, text, err)
	}
	return Outcome{Record: record, Source: SourceStructured}
}

func (e *StructuredExtractor) fallback(device, text string, cause error) Outcome {
	return Outcome{
		Record: Build(device, e.classifier.Classify(text)),
		Source: SourceFallback,
		Cause:  cause,
	}
}

// Prompt renders the extraction prompt with the document truncated to MaxPromptChars runes.
func (e *StructuredExtractor) Prompt(text string) string {
	doc := truncateRunes(text, e.cfg.MaxPromptChars)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a technical documentation analyst specializing in %s specifications.\n\n", e.cfg.DeviceType)
	b.WriteString("Extract and organize the information in this technical document into exactly these 8 categories:\n\n")
	for _, label := range features.Labels() {
		b.WriteString(label)
		b.WriteByte('\n')
	}
	b.WriteString("\nTechnical Document:\n")
	b.WriteString(doc)
	b.WriteString("\n\nFor each category provide:\n")
	b.WriteString("- Clear, concise bullet points starting with \"• \"\n")
	b.WriteString("- Specific technical values (voltages, temperatures, dimensions, ratings)\n")
	b.WriteString("- No marketing language or repeated information\n")
	fmt.Fprintf(&b, "- If nothing relevant is found for a category, write %q\n\n", features.MissingText)
	b.WriteString("Respond with a single JSON object whose keys are the exact category names above and whose values are strings.\n")
	b.WriteString("Only include factual technical information. Exclude installation instructions, warranty information and marketing content.\n")
	return b.String()
}

// ParseStructuredResponse decodes a completion into a backfilled record. Markdown code
// fences and any chatter around the outermost JSON object are ignored.
func ParseStructuredResponse(device, response string) (*features.Record, error) {
	body := stripCodeFence(response)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, domain.MalformedResponseError("no JSON object in completion", nil)
	}

	raw := features.NewRecord(device)
	if err := json.Unmarshal([]byte(body[start:end+1]), raw); err != nil {
		return nil, domain.MalformedResponseError("completion is not a JSON object", err)
	}
	return Backfill(device, raw), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string ("json")
		s = s[nl+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
