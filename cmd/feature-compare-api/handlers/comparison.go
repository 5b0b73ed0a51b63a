// Package handlers provides HTTP handlers for the feature-compare API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/report"
)

// Comparer is the comparison service as seen by the handlers.
type Comparer interface {
	ReferenceVendor() string
	Vendors(ctx context.Context) ([]string, error)
	Devices(ctx context.Context, vendor string) ([]string, error)
	Compare(ctx context.Context, req comparison.Request) (*comparison.Report, error)
}

// ComparisonHandler handles vendor listing and comparison requests.
type ComparisonHandler struct {
	logger   *observability.Logger
	comparer Comparer
}

// NewComparisonHandler creates a new comparison handler.
func NewComparisonHandler(logger *observability.Logger, comparer Comparer) *ComparisonHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ComparisonHandler{logger: logger, comparer: comparer}
}

// VendorsResponseDTO lists stored vendors.
type VendorsResponseDTO struct {
	Reference string   `json:"reference"`
	Vendors   []string `json:"vendors"`
}

// DevicesResponseDTO lists one vendor's devices.
type DevicesResponseDTO struct {
	Vendor  string   `json:"vendor"`
	Devices []string `json:"devices"`
}

// Vendors handles GET /vendors.
func (h *ComparisonHandler) Vendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.comparer.Vendors(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VendorsResponseDTO{Reference: h.comparer.ReferenceVendor(), Vendors: vendors})
}

// Devices handles GET /vendors/{vendor}/devices.
func (h *ComparisonHandler) Devices(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "vendor")
	devices, err := h.comparer.Devices(r.Context(), vendor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DevicesResponseDTO{Vendor: vendor, Devices: devices})
}

// Compare handles POST /comparisons. The report is JSON unless ?format= names a
// rendered format (html, markdown or text).
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithContext(ctx)

	var req comparison.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var renderer report.Renderer
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		var err error
		if renderer, err = report.ForFormat(format); err != nil {
			writeError(w, http.StatusBadRequest, "unsupported format", err.Error())
			return
		}
	}

	logger.Info().
		Str("reference_device", req.ReferenceDevice).
		Str("competitor_vendor", req.CompetitorVendor).
		Str("competitor_device", req.CompetitorDevice).
		Msg("Processing comparison")

	result, err := h.comparer.Compare(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if renderer == nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := renderer.Render(w, result); err != nil {
		logger.Error().Err(err).Msg("Failed to render report")
	}
}

func (h *ComparisonHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeError(w, status, http.StatusText(status), err.Error())
}

func statusFor(err error) int {
	switch {
	case domain.IsType(err, domain.ErrorTypeValidation):
		return http.StatusBadRequest
	case domain.IsType(err, domain.ErrorTypeMissingCollection),
		domain.IsType(err, domain.ErrorTypeDeviceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
