package comparison

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/cache"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/storage"
)

const cacheNamespace = "comparison"

// CollectionStore loads vendor collections.
type CollectionStore interface {
	Load(ctx context.Context, vendor string) (*features.Collection, error)
	ListVendors(ctx context.Context) ([]string, error)
}

// ReportCache caches encoded reports.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Config for the comparison service.
type Config struct {
	ReferenceVendor string
	CacheTTL        time.Duration
	Analysis        bool
}

// Request selects the two devices to compare. An empty CompetitorDevice picks the first
// device of the competitor's collection; an empty ReferenceVendor uses the configured one.
type Request struct {
	ReferenceVendor  string `json:"reference_vendor,omitempty"`
	ReferenceDevice  string `json:"reference_device"`
	CompetitorVendor string `json:"competitor_vendor"`
	CompetitorDevice string `json:"competitor_device,omitempty"`
	SkipAnalysis     bool   `json:"skip_analysis,omitempty"`
}

// Report is a finished comparison.
type Report struct {
	ID               string    `json:"id"`
	ReferenceVendor  string    `json:"reference_vendor"`
	ReferenceDevice  string    `json:"reference_device"`
	CompetitorVendor string    `json:"competitor_vendor"`
	CompetitorDevice string    `json:"competitor_device"`
	Rows             []Row     `json:"rows"`
	Narrative        []string  `json:"narrative"`
	Analysis         string    `json:"analysis,omitempty"`
	AnalysisError    string    `json:"analysis_error,omitempty"`
	Hash             string    `json:"hash"`
	GeneratedAt      time.Time `json:"generated_at"`
	Cached           bool      `json:"cached"`
}

// UnresolvedCount returns how many reference values pointed at a missing base.
func (r *Report) UnresolvedCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.ReferenceStatus.Unresolved() {
			n++
		}
	}
	return n
}

// Unresolved returns one error per row whose reference could not be resolved.
func (r *Report) Unresolved() []error {
	var errs []error
	for _, row := range r.Rows {
		if row.ReferenceStatus.Unresolved() {
			errs = append(errs, domain.UnresolvedReferenceError(row.Category, row.ReferenceTarget))
		}
	}
	return errs
}

// Service loads collections, reconciles two devices and optionally asks for a
// narrative analysis. Reports are cached by a hash of both records' content.
type Service struct {
	logger     *observability.Logger
	store      CollectionStore
	cache      ReportCache
	reconciler *Reconciler
	analyst    *Analyst
	cfg        Config
	now        func() time.Time
}

// NewService creates a comparison service. cache and analyst may be nil.
func NewService(logger *observability.Logger, store CollectionStore, cache ReportCache, reconciler *Reconciler, analyst *Analyst, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if reconciler == nil {
		reconciler = NewReconciler(nil)
	}
	return &Service{
		logger:     logger,
		store:      store,
		cache:      cache,
		reconciler: reconciler,
		analyst:    analyst,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ReferenceVendor returns the configured reference vendor.
func (s *Service) ReferenceVendor() string {
	return s.cfg.ReferenceVendor
}

// Vendors lists the vendors with stored collections.
func (s *Service) Vendors(ctx context.Context) ([]string, error) {
	return s.store.ListVendors(ctx)
}

// Devices lists a vendor's devices in collection order.
func (s *Service) Devices(ctx context.Context, vendor string) ([]string, error) {
	coll, err := s.load(ctx, vendor)
	if err != nil {
		return nil, err
	}
	return coll.Devices(), nil
}

// Compare builds the comparison report for req.
func (s *Service) Compare(ctx context.Context, req Request) (*Report, error) {
	if req.ReferenceVendor == "" {
		req.ReferenceVendor = s.cfg.ReferenceVendor
	}
	if req.ReferenceDevice == "" || req.CompetitorVendor == "" {
		return nil, domain.ValidationError("reference_device and competitor_vendor are required", nil)
	}

	log := s.logger.WithContext(ctx).WithOperation("compare")
	log.Info().
		Str("reference_vendor", req.ReferenceVendor).
		Str("reference_device", req.ReferenceDevice).
		Str("competitor_vendor", req.CompetitorVendor).
		Str("competitor_device", req.CompetitorDevice).
		Msg("Processing comparison request")

	refColl, err := s.load(ctx, req.ReferenceVendor)
	if err != nil {
		return nil, err
	}
	refRec, ok := refColl.Get(req.ReferenceDevice)
	if !ok {
		return nil, domain.DeviceNotFoundError(req.ReferenceVendor, req.ReferenceDevice)
	}

	compColl, err := s.load(ctx, req.CompetitorVendor)
	if err != nil {
		return nil, err
	}
	compRec, err := pickCompetitor(compColl, req.CompetitorDevice)
	if err != nil {
		return nil, err
	}

	withAnalysis := s.analyst != nil && s.cfg.Analysis && !req.SkipAnalysis
	key, err := s.cacheKey(refColl, refRec, compRec, req, withAnalysis)
	if err != nil {
		return nil, err
	}
	if report, ok := s.cached(ctx, key); ok {
		log.Debug().Str("hash", report.Hash).Msg("Serving cached comparison")
		return report, nil
	}

	rows := s.reconciler.Reconcile(refRec, compRec, refColl)
	report := &Report{
		ID:               uuid.NewString(),
		ReferenceVendor:  req.ReferenceVendor,
		ReferenceDevice:  refRec.Device,
		CompetitorVendor: req.CompetitorVendor,
		CompetitorDevice: compRec.Device,
		Rows:             rows,
		Narrative:        NarrativeLines(rows, req.ReferenceVendor, req.CompetitorVendor),
		Hash:             computeHash(rows),
		GeneratedAt:      s.now().UTC(),
	}
	for _, err := range report.Unresolved() {
		log.Warn().Err(err).Str("device", refRec.Device).Msg("Reference value could not be resolved")
	}

	if withAnalysis {
		analysis, err := s.analyst.Analyze(ctx, AnalysisRequest{
			ReferenceVendor:  report.ReferenceVendor,
			ReferenceDevice:  report.ReferenceDevice,
			CompetitorVendor: report.CompetitorVendor,
			CompetitorDevice: report.CompetitorDevice,
			Lines:            report.Narrative,
		})
		if err != nil {
			log.Error().Err(err).Msg("Narrative analysis failed")
			report.AnalysisError = fmt.Sprintf("Analysis failed: %v", err)
		} else {
			report.Analysis = analysis
		}
	}

	// failed analyses are not cached so a retry can succeed
	if report.AnalysisError == "" {
		s.remember(ctx, key, report)
	}
	return report, nil
}

func (s *Service) load(ctx context.Context, vendor string) (*features.Collection, error) {
	coll, err := s.store.Load(ctx, vendor)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.MissingCollectionError(vendor, err)
	}
	if errors.Is(err, storage.ErrInvalidInput) {
		return nil, domain.ValidationError(fmt.Sprintf("invalid vendor %q", vendor), err)
	}
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("load %s collection", vendor), err)
	}
	return coll, nil
}

func pickCompetitor(coll *features.Collection, device string) (*features.Record, error) {
	if device != "" {
		rec, ok := coll.Get(device)
		if !ok {
			return nil, domain.DeviceNotFoundError(coll.Vendor, device)
		}
		return rec, nil
	}
	rec, ok := coll.First()
	if !ok {
		return nil, domain.MissingCollectionError(coll.Vendor, errors.New("collection has no devices"))
	}
	return rec, nil
}

// InvalidateReports drops every cached report. Callers use it after saving a
// collection.
func (s *Service) InvalidateReports(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.Key(cacheNamespace, "")); err != nil {
		return fmt.Errorf("invalidate cached reports: %w", err)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, key string) (*Report, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("Report cache read failed")
		}
		return nil, false
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding undecodable cached report")
		return nil, false
	}
	report.Cached = true
	return &report, true
}

func (s *Service) remember(ctx context.Context, key string, report *Report) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Encode report for cache")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Report cache write failed")
	}
}

// cacheKey hashes the reference collection and the competitor record, so edited data
// never serves a stale report. Siblings count because references resolve through them.
func (s *Service) cacheKey(refColl *features.Collection, ref, comp *features.Record, req Request, analysis bool) (string, error) {
	h := sha256.New()
	for _, part := range []string{req.ReferenceVendor, ref.Device, req.CompetitorVendor, comp.Device, fmt.Sprint(analysis)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, m := range []json.Marshaler{refColl, comp} {
		data, err := m.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("encode records for cache key: %w", err)
		}
		h.Write(data)
	}
	return cache.Key(cacheNamespace, hex.EncodeToString(h.Sum(nil))), nil
}

func computeHash(rows []Row) string {
	h := sha256.New()
	for _, row := range rows {
		h.Write([]byte(row.Category))
		h.Write([]byte(row.ReferenceFull))
		h.Write([]byte(row.CompetitorFull))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
