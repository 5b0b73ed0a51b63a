// Package report renders comparison reports for terminals, documents and browsers.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
)

// detailSlack is how much longer the full text must be than the short text before a
// full-details block is shown.
const detailSlack = 20

// Renderer writes a report in one presentation format.
type Renderer interface {
	Render(w io.Writer, r *comparison.Report) error
	ContentType() string
}

// ForFormat returns the renderer for a format name: text, markdown, html or terminal.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return TextRenderer{}, nil
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	case "html":
		return HTMLRenderer{}, nil
	case "terminal", "term":
		return NewTerminalRenderer(false), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// HasMoreDetail reports whether full adds enough over short to be worth showing.
func HasMoreDetail(short, full string) bool {
	return utf8.RuneCountInString(full) > utf8.RuneCountInString(short)+detailSlack
}

// Title is the heading line shared by every format.
func Title(r *comparison.Report) string {
	return fmt.Sprintf("Feature Comparison: %s %s vs %s %s",
		r.ReferenceVendor, r.ReferenceDevice, r.CompetitorVendor, r.CompetitorDevice)
}

// Heading numbers a category for display unless its label already carries a number.
func Heading(i int, category string) string {
	if category != "" && unicode.IsDigit(rune(category[0])) {
		return category
	}
	return fmt.Sprintf("%d. %s", i+1, category)
}

func analysisBody(r *comparison.Report) string {
	switch {
	case r.Analysis != "":
		return r.Analysis
	case r.AnalysisError != "":
		return r.AnalysisError
	default:
		return ""
	}
}

// TextRenderer writes plain text.
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(w io.Writer, r *comparison.Report) error {
	ew := &errWriter{w: w}
	title := Title(r)
	ew.printf("%s\n%s\n\n", title, strings.Repeat("=", utf8.RuneCountInString(title)))

	for i, row := range r.Rows {
		ew.printf("%s\n", Heading(i, row.Category))
		ew.printf("  %s:\n%s\n", r.ReferenceVendor, indent(row.ReferenceShort, "    "))
		ew.printf("  %s:\n%s\n\n", r.CompetitorVendor, indent(row.CompetitorShort, "    "))
	}

	if n := r.UnresolvedCount(); n > 0 {
		ew.printf("Note: %d reference value(s) point at data that could not be found.\n\n", n)
	}
	if body := analysisBody(r); body != "" {
		ew.printf("Analysis\n--------\n%s\n", body)
	}
	return ew.err
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
