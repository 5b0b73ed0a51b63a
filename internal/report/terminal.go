package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
)

// TerminalRenderer writes a colored report for interactive terminals.
type TerminalRenderer struct {
	heading   *color.Color
	category  *color.Color
	reference *color.Color
	rival     *color.Color
	warn      *color.Color
	dim       *color.Color
}

// NewTerminalRenderer creates a terminal renderer. noColor disables escape codes.
func NewTerminalRenderer(noColor bool) *TerminalRenderer {
	t := &TerminalRenderer{
		heading:   color.New(color.FgCyan, color.Bold),
		category:  color.New(color.Bold),
		reference: color.New(color.FgBlue),
		rival:     color.New(color.FgYellow),
		warn:      color.New(color.FgRed),
		dim:       color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{t.heading, t.category, t.reference, t.rival, t.warn, t.dim} {
			c.DisableColor()
		}
	}
	return t
}

func (t *TerminalRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (t *TerminalRenderer) Render(w io.Writer, r *comparison.Report) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", t.heading.Sprint(Title(r)))
	if r.Cached {
		ew.printf("%s\n", t.dim.Sprint("(cached result)"))
	}
	ew.printf("\n")

	for i, row := range r.Rows {
		ew.printf("%s\n", t.category.Sprint(Heading(i, row.Category)))
		ew.printf("  %s\n%s\n", t.reference.Sprint(r.ReferenceVendor), indent(row.ReferenceShort, "    "))
		if row.ReferenceStatus.Unresolved() {
			ew.printf("    %s\n", t.warn.Sprint("! reference not resolved"))
		}
		ew.printf("  %s\n%s\n\n", t.rival.Sprint(r.CompetitorVendor), indent(row.CompetitorShort, "    "))
	}

	switch {
	case r.Analysis != "":
		ew.printf("%s\n%s\n", t.heading.Sprint("Analysis"), r.Analysis)
	case r.AnalysisError != "":
		ew.printf("%s\n", t.warn.Sprint(r.AnalysisError))
	}
	if ew.err != nil {
		return fmt.Errorf("write terminal report: %w", ew.err)
	}
	return nil
}

// Summary is a one-line description used by progress output.
func Summary(r *comparison.Report) string {
	parts := []string{fmt.Sprintf("%d categories", len(r.Rows))}
	if n := r.UnresolvedCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved", n))
	}
	if r.Cached {
		parts = append(parts, "cached")
	}
	return strings.Join(parts, ", ")
}
