package comparison

import (
	"context"
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

// NoAnalysisText stands in for an empty completion.
const NoAnalysisText = "No analysis available."

// Completer is the text-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ScoreCategories are the dimensions the narrative analysis is asked to score out of 10.
var ScoreCategories = []string{
	"Hardware Specifications",
	"Temperature Control",
	"Safety Features",
	"Installation & Setup",
	"Advanced Features",
	"Build Quality & Reliability",
}

var introPhrases = []string{
	"of course. here is a professional analysis",
	"here is a professional analysis",
	"based on the information provided",
	"let me analyze",
	"i'll analyze",
	"here's a comparison",
	"here is a comparison",
	"looking at the comparison",
	"analyzing the features",
}

// AnalysisRequest names the two devices and carries the flattened comparison.
type AnalysisRequest struct {
	ReferenceVendor  string
	ReferenceDevice  string
	CompetitorVendor string
	CompetitorDevice string
	Lines            []string
}

// Analyst asks the completion collaborator for a scored recommendation.
type Analyst struct {
	completer Completer
	logger    *observability.Logger
}

// NewAnalyst creates an analyst.
func NewAnalyst(completer Completer, logger *observability.Logger) *Analyst {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Analyst{completer: completer, logger: logger}
}

// Analyze returns the cleaned analysis text.
func (a *Analyst) Analyze(ctx context.Context, req AnalysisRequest) (string, error) {
	resp, err := a.completer.Complete(ctx, Prompt(req))
	if err != nil {
		return "", fmt.Errorf("narrative analysis: %w", err)
	}
	a.logger.Debug().
		Str("reference_device", req.ReferenceDevice).
		Str("competitor_device", req.CompetitorDevice).
		Int("response_chars", len(resp)).
		Msg("Received analysis")
	return CleanAnalysis(resp, req.ReferenceVendor, req.CompetitorVendor), nil
}

// Prompt renders the scoring prompt for req.
func Prompt(req AnalysisRequest) string {
	ref, comp := req.ReferenceVendor, req.CompetitorVendor

	var b strings.Builder
	b.WriteString("Compare these refrigeration controllers for industrial applications:\n\n")
	fmt.Fprintf(&b, "%s %s vs %s %s\n\n", ref, req.ReferenceDevice, comp, req.CompetitorDevice)
	b.WriteString("Feature Analysis:\n")
	b.WriteString(strings.Join(req.Lines, "\n"))
	b.WriteString("\n\nProvide a detailed scoring analysis:\n\n")
	b.WriteString("1. **CATEGORY SCORES** (Rate each category out of 10 for both devices):\n")
	for _, c := range ScoreCategories {
		fmt.Fprintf(&b, "   - %s: %s [X/10] vs %s [Y/10]\n", c, ref, comp)
	}
	total := 10 * len(ScoreCategories)
	b.WriteString("\n2. **TOTAL SCORE**: Add up all categories\n")
	fmt.Fprintf(&b, "   - %s: [Total]/%d\n   - %s: [Total]/%d\n", ref, total, comp, total)
	b.WriteString("\n3. **WINNER**: State which device scored higher and by how much\n")
	b.WriteString("\n4. **KEY DIFFERENCES**: 3-4 bullet points of main differences\n")
	b.WriteString("\n5. **STRENGTHS & WEAKNESSES**:\n")
	fmt.Fprintf(&b, "   - %s Strengths:\n   - %s Weaknesses:\n", ref, ref)
	fmt.Fprintf(&b, "   - %s Strengths:\n   - %s Weaknesses:\n", comp, comp)
	b.WriteString("\n6. **RECOMMENDATION**: One clear recommendation for buyers based on the scores\n\n")
	b.WriteString("Be objective and base scores on actual feature comparisons. Start immediately with the scores.\n")
	return b.String()
}

// CleanAnalysis drops leading chatter from a completion. After an intro phrase, lines
// are skipped until one mentions the scores, the winner, the comparison or one of the
// vendors. A score heading placeholder is prepended when the text never mentions a score.
func CleanAnalysis(response string, vendors ...string) string {
	if strings.TrimSpace(response) == "" {
		return NoAnalysisText
	}

	keywords := []string{"score", "winner", "comparison", "analysis"}
	for _, v := range vendors {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			keywords = append(keywords, v)
		}
	}

	var kept []string
	skipping := false
	for _, line := range strings.Split(response, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if containsAny(lower, introPhrases) {
			skipping = true
			continue
		}
		if skipping {
			if lower != "" && containsAny(lower, keywords) {
				skipping = false
				kept = append(kept, line)
			}
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if !strings.Contains(strings.ToLower(cleaned), "score") {
		cleaned = "**SCORE**: Analysis in progress...\n\n" + cleaned
	}
	return cleaned
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
