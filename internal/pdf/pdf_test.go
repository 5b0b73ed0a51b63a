package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
)

func TestValidator_ValidatePDFPath(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "AK-CC55.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"valid pdf", pdfPath, ""},
		{"empty path", "  ", "cannot be empty"},
		{"missing file", filepath.Join(dir, "nope.pdf"), "does not exist"},
		{"directory", dir, "is a directory"},
		{"wrong extension", txtPath, "not a PDF"},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDFPath(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDeviceName(t *testing.T) {
	tests := map[string]string{
		"AK-CC55_Compact.pdf":       "AK CC55 Compact",
		"/data/Danfoss/EKC 202.PDF": "EKC 202",
		"ir33__plus.pdf":            "ir33 plus",
		"XR60CX.pdf":                "XR60CX",
	}
	for in, want := range tests {
		assert.Equal(t, want, DeviceName(in), in)
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("a.pdf"))
	assert.True(t, IsPDF("a.PDF"))
	assert.False(t, IsPDF("a.pdf.txt"))
	assert.False(t, IsPDF("pdf"))
}

func TestTextExtractor_RejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	e := NewTextExtractor(nil)

	_, err := e.ExtractText(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a pdf at all"), 0o644))
	_, err = e.ExtractText(context.Background(), corrupt)
	require.Error(t, err)
}
