package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/storage"
)

func newTestService(t *testing.T) *comparison.Service {
	store := storage.NewFileStore(t.TempDir())
	ctx := context.Background()

	danfoss := features.NewCollection("Danfoss")
	ref := features.NewRecord("AK-CC55 Compact")
	ref.Set("2. Functions", "Defrost control")
	require.NoError(t, danfoss.Add(ref))
	require.NoError(t, store.Save(ctx, danfoss))

	dixell := features.NewCollection("Dixell")
	comp := features.NewRecord("XR60CX")
	comp.Set("2. Functions", "Fan control")
	require.NoError(t, dixell.Add(comp))
	require.NoError(t, store.Save(ctx, dixell))

	return comparison.NewService(nil, store, nil, nil, nil, comparison.Config{ReferenceVendor: "Danfoss"})
}

func TestRouter(t *testing.T) {
	router := NewRouter(nil, newTestService(t), 5*time.Second)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		status   int
		contains string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"healthy"`},
		{"vendors", http.MethodGet, "/api/v1/vendors", "", http.StatusOK, `"Dixell"`},
		{"devices", http.MethodGet, "/api/v1/vendors/Dixell/devices", "", http.StatusOK, `"XR60CX"`},
		{"unknown vendor", http.MethodGet, "/api/v1/vendors/Carel/devices", "", http.StatusNotFound, "Carel"},
		{"compare", http.MethodPost, "/api/v1/comparisons", `{"reference_device":"AK-CC55 Compact","competitor_vendor":"Dixell"}`, http.StatusOK, "Fan control."},
		{"compare markdown", http.MethodPost, "/api/v1/comparisons?format=markdown", `{"reference_device":"AK-CC55 Compact","competitor_vendor":"Dixell"}`, http.StatusOK, "#### 2. Functions"},
		{"compare html", http.MethodPost, "/api/v1/comparisons?format=html", `{"reference_device":"AK-CC55 Compact","competitor_vendor":"Dixell"}`, http.StatusOK, "<!doctype html>"},
		{"unknown route", http.MethodGet, "/api/v2/vendors", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(nil, newTestService(t), 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/comparisons", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
