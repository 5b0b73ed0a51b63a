// Package app wires configured collaborators into the extraction and comparison services
// shared by the CLI and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/cache"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/extract"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/llm"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/pdf"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/storage"
)

// App holds the wired services. Close releases the store and cache.
type App struct {
	Config     *config.Config
	Logger     *observability.Logger
	Store      storage.Store
	Cache      cache.Client
	Completer  llm.Completer
	Comparison *comparison.Service
	Extraction *extract.Service
}

// New opens storage and cache and builds both services from cfg.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reportCache, err := cache.New(cfg.Cache)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	completer, err := llm.New(cfg.LLM, logger)
	if err != nil {
		store.Close()
		reportCache.Close()
		return nil, err
	}

	matcher, err := comparison.MatcherByName(cfg.Comparison.Matcher)
	if err != nil {
		store.Close()
		reportCache.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Cache:     reportCache,
		Completer: completer,
	}

	var analyst *comparison.Analyst
	var structured ingest.Completer
	if completer != nil {
		analyst = comparison.NewAnalyst(completer, logger)
		structured = completer
	}

	a.Comparison = comparison.NewService(logger, store, reportCache,
		comparison.NewReconciler(comparison.NewResolver(matcher)),
		analyst,
		comparison.Config{
			ReferenceVendor: cfg.Comparison.ReferenceVendor,
			CacheTTL:        cfg.Comparison.CacheTTL,
			Analysis:        cfg.Comparison.Analysis,
		})

	extractor := ingest.NewStructuredExtractor(structured, ingest.NewClassifier(), logger, ingest.StructuredConfig{
		MinTextLength:  cfg.Extraction.MinTextLength,
		MaxPromptChars: cfg.Extraction.MaxPromptChars,
	})
	a.Extraction = extract.NewService(pdf.NewTextExtractor(logger), extractor, store, logger, extract.Config{
		MaxConcurrent: cfg.Extraction.MaxConcurrent,
		SaveText:      cfg.Extraction.SaveText,
	})

	logger.Debug().
		Str("storage", cfg.Storage.Driver).
		Str("cache", cfg.Cache.Driver).
		Str("llm", cfg.LLM.Provider).
		Str("matcher", cfg.Comparison.Matcher).
		Msg("Application wired")

	return a, nil
}

// Close releases the store and the cache.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.Store.Close())
}
