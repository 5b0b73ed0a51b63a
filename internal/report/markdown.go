package report

import (
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
)

// MarkdownRenderer writes GitHub-flavored Markdown. Rows become a two-column table
// followed by collapsible full-details blocks where the short form dropped text.
type MarkdownRenderer struct{}

func (MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

func (MarkdownRenderer) Render(w io.Writer, r *comparison.Report) error {
	_, err := io.WriteString(w, Markdown(r))
	return err
}

// Markdown renders the report as a Markdown document. Report text is HTML-escaped so
// the only raw HTML in the output is the markup written here.
func Markdown(r *comparison.Report) string {
	var b strings.Builder
	b.WriteString("### " + html.EscapeString(Title(r)) + "\n\n")

	for i, row := range r.Rows {
		b.WriteString("#### " + html.EscapeString(Heading(i, row.Category)) + "\n\n")

		b.WriteString("| " + cell(r.ReferenceVendor) + " | " + cell(r.CompetitorVendor) + " |\n")
		b.WriteString("| --- | --- |\n")
		b.WriteString("| " + cell(row.ReferenceShort) + " | " + cell(row.CompetitorShort) + " |\n\n")

		if HasMoreDetail(row.ReferenceShort, row.ReferenceFull) {
			details(&b, r.ReferenceVendor, row.ReferenceFull)
		}
		if HasMoreDetail(row.CompetitorShort, row.CompetitorFull) {
			details(&b, r.CompetitorVendor, row.CompetitorFull)
		}
	}

	if n := r.UnresolvedCount(); n > 0 {
		b.WriteString("> **Note:** " + strconv.Itoa(n) + " reference value(s) point at data that could not be found.\n\n")
	}

	if body := analysisBody(r); body != "" {
		b.WriteString("---\n\n### Analysis & Recommendations\n\n")
		b.WriteString(html.EscapeString(body))
		b.WriteString("\n")
	}
	return b.String()
}

func details(b *strings.Builder, vendor, full string) {
	b.WriteString("<details>\n<summary>View full " + html.EscapeString(vendor) + " details</summary>\n\n")
	b.WriteString(html.EscapeString(full))
	b.WriteString("\n\n</details>\n\n")
}

// cell makes text safe for one table cell.
func cell(text string) string {
	text = strings.ReplaceAll(html.EscapeString(text), "|", `\|`)
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "<br>")
}
