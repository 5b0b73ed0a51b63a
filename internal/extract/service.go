// Package extract runs datasheet batches through text extraction, normalization and
// feature extraction, and persists one collection per vendor.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/pdf"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/storage"
)

// ErrNoDocuments is returned when a vendor directory holds no PDF datasheets.
var ErrNoDocuments = errors.New("no PDF datasheets found")

// TextExtractor turns a document into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// EventType identifies a progress event.
type EventType string

const (
	EventStart            EventType = "start"
	EventDeviceProcessing EventType = "device_processing"
	EventDeviceComplete   EventType = "device_complete"
	EventError            EventType = "error"
	EventComplete         EventType = "complete"
)

// Event is emitted while a batch is processed.
type Event struct {
	Type      EventType
	Vendor    string
	Device    string
	Source    ingest.Source
	Total     int
	Payload   string
	Timestamp time.Time
}

// Config holds batch settings.
type Config struct {
	MaxConcurrent int
	SaveText      bool
}

// Result summarizes one vendor batch.
type Result struct {
	Vendor     string
	Collection *features.Collection
	Run        *storage.ExtractionRun
	// Failed lists devices whose document text could not be read; they are stored
	// as all-Missing records.
	Failed []string
}

// Service orchestrates the extraction workflow
type Service struct {
	text      TextExtractor
	extractor *ingest.StructuredExtractor
	store     storage.Store
	logger    *observability.Logger
	cfg       Config
}

// NewService creates a new extraction service
func NewService(text TextExtractor, extractor *ingest.StructuredExtractor, store storage.Store, logger *observability.Logger, cfg Config) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		text:      text,
		extractor: extractor,
		store:     store,
		logger:    logger.WithOperation("extract"),
		cfg:       cfg,
	}
}

type deviceResult struct {
	outcome ingest.Outcome
	failed  bool
}

// Process extracts every PDF in dir into vendor's collection and saves it. Per-document
// failures never abort the batch; only cancellation and storage errors do.
func (s *Service) Process(ctx context.Context, vendor, dir string, eventCh chan<- Event) (*Result, error) {
	startTime := time.Now()
	logger := s.logger.WithVendor(vendor)

	files, err := listDocuments(dir)
	if err != nil {
		return nil, err
	}

	s.emitEvent(eventCh, Event{
		Type:    EventStart,
		Vendor:  vendor,
		Total:   len(files),
		Payload: fmt.Sprintf("Starting extraction of %d datasheets for %s", len(files), vendor),
	})
	logger.Info().Int("documents", len(files)).Str("dir", dir).Msg("Starting extraction")

	results := make([]deviceResult, len(files))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			device := pdf.DeviceName(path)
			s.emitEvent(eventCh, Event{Type: EventDeviceProcessing, Vendor: vendor, Device: device, Total: len(files)})

			results[i] = s.processDocument(gctx, logger, vendor, device, path)
			if err := gctx.Err(); err != nil {
				return err
			}

			n := done.Add(1)
			if results[i].failed {
				s.emitError(eventCh, vendor, device, results[i].outcome.Cause)
			}
			s.emitEvent(eventCh, Event{
				Type:    EventDeviceComplete,
				Vendor:  vendor,
				Device:  device,
				Source:  results[i].outcome.Source,
				Total:   len(files),
				Payload: fmt.Sprintf("Completed %d/%d", n, len(files)),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.emitError(eventCh, vendor, "", err)
		return nil, err
	}

	coll := features.NewCollection(vendor)
	run := &storage.ExtractionRun{ID: uuid.New(), Vendor: vendor, StartedAt: startTime}
	res := &Result{Vendor: vendor, Collection: coll, Run: run}
	for _, r := range results {
		if err := coll.Add(r.outcome.Record); err != nil {
			logger.Warn().Str("device", r.outcome.Record.Device).Err(err).Msg("Skipping duplicate device")
			continue
		}
		if r.outcome.Source == ingest.SourceFallback {
			run.Fallbacks++
		}
		if r.failed {
			run.Failures++
			res.Failed = append(res.Failed, r.outcome.Record.Device)
		}
	}
	run.Devices = coll.Len()

	if err := s.store.Save(ctx, coll); err != nil {
		return nil, domain.IOError(fmt.Sprintf("saving %s collection", vendor), err)
	}
	run.FinishedAt = time.Now()
	if err := s.store.RecordRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("Failed to record extraction run")
	}

	duration := time.Since(startTime)
	s.emitEvent(eventCh, Event{
		Type:   EventComplete,
		Vendor: vendor,
		Total:  len(files),
		Payload: fmt.Sprintf("Extraction complete: %d devices (%d fallback, %d failed) in %v",
			run.Devices, run.Fallbacks, run.Failures, duration.Round(time.Millisecond)),
	})
	logger.Info().
		Int("devices", run.Devices).
		Int("fallbacks", run.Fallbacks).
		Int("failures", run.Failures).
		Dur("duration", duration).
		Msg("Extraction complete")

	return res, nil
}

// ProcessAll treats every sub-directory of root as a vendor and processes each in name
// order. Directories without datasheets are skipped.
func (s *Service) ProcessAll(ctx context.Context, root string, eventCh chan<- Event) ([]*Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("reading input root %s", root), err)
	}

	var out []*Result
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		res, err := s.Process(ctx, entry.Name(), filepath.Join(root, entry.Name()), eventCh)
		if errors.Is(err, ErrNoDocuments) {
			s.logger.Warn().Str("vendor", entry.Name()).Msg("No datasheets, skipping")
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Service) processDocument(ctx context.Context, logger *observability.Logger, vendor, device, path string) deviceResult {
	raw, err := s.text.ExtractText(ctx, path)
	if err != nil {
		logger.Error().Str("device", device).Str("path", path).Err(err).Msg("Text extraction failed")
		return deviceResult{
			outcome: ingest.Outcome{Record: ingest.EmptyRecord(device), Source: ingest.SourceEmpty, Cause: err},
			failed:  true,
		}
	}

	text := ingest.Normalize(raw)
	if s.cfg.SaveText {
		if err := s.store.SaveText(ctx, vendor, device, text); err != nil {
			logger.Warn().Str("device", device).Err(err).Msg("Failed to save document text")
		}
	}

	outcome := s.extractor.Extract(ctx, device, text)
	logger.Debug().Str("device", device).Str("source", string(outcome.Source)).Msg("Extracted features")
	return deviceResult{outcome: outcome}
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("reading %s", dir), err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && pdf.IsPDF(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, domain.ValidationError(dir, ErrNoDocuments)
	}
	sort.Strings(files)
	return files, nil
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- Event, event Event) {
	if eventCh == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case eventCh <- event:
	default:
		s.logger.Warn().Str("event", string(event.Type)).Msg("Event channel full, dropping event")
	}
}

func (s *Service) emitError(eventCh chan<- Event, vendor, device string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.emitEvent(eventCh, Event{Type: EventError, Vendor: vendor, Device: device, Payload: msg})
}
