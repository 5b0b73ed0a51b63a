// Package pdf turns datasheet PDFs into plain text.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

// TextExtractor reads the text layer of a PDF with MuPDF.
type TextExtractor struct {
	validator *Validator
	logger    *observability.Logger
}

// NewTextExtractor creates a new PDF text extractor.
func NewTextExtractor(logger *observability.Logger) *TextExtractor {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &TextExtractor{validator: NewValidator(logger), logger: logger}
}

// ExtractText returns the text of every page joined by blank lines. Pages that
// fail to render are logged and skipped; a document where every page fails is
// an extraction error.
func (e *TextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := e.validator.ValidatePDFPath(path); err != nil {
		return "", err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", domain.ExtractionError("Failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", domain.ValidationError("PDF has no pages", nil)
	}

	pages := make([]string, 0, pageCount)
	failed := 0
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			failed++
			e.logger.Warn().
				Str("path", path).
				Int("page", pageNum+1).
				Err(err).
				Msg("Failed to extract page text")
			continue
		}
		pages = append(pages, text)
	}

	if failed == pageCount {
		return "", domain.ExtractionError(fmt.Sprintf("all %d pages failed to extract", pageCount), nil)
	}

	e.logger.Debug().
		Str("path", path).
		Int("pages", pageCount).
		Int("failed", failed).
		Msg("Extracted PDF text")

	return strings.Join(pages, "\n\n"), nil
}
