// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/feature-compare/cmd/feature-compare-api/handlers"
	"github.com/spherical-ai/spherical/libs/feature-compare/cmd/feature-compare-api/middleware"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, comparer handlers.Comparer, requestTimeout time.Duration) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	if requestTimeout > 0 {
		r.Use(chimiddleware.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"feature-compare"}`))
	})

	comparisonHandler := handlers.NewComparisonHandler(logger, comparer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", comparisonHandler.Vendors)
			r.Get("/{vendor}/devices", comparisonHandler.Devices)
		})

		r.Post("/comparisons", comparisonHandler.Compare)
	})

	return r
}
