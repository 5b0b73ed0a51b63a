package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
)

const styleCSS = `body{font-family:system-ui,sans-serif;max-width:1000px;margin:0 auto;padding:1rem;color:#1c1917}
table{width:100%;border-collapse:collapse;font-size:0.9rem}
th,td{border:1px solid #a8a29e;padding:0.4rem 0.5rem;text-align:left;vertical-align:top;width:50%}
thead th{background:#f1f5f9}
details{margin:0.4rem 0;padding:0.5rem;border:1px solid #ddd;border-radius:5px}
summary{cursor:pointer;font-weight:bold}
blockquote{border-left:3px solid #92400e;margin-left:0;padding-left:0.8rem}`

// HTMLRenderer converts the Markdown report to a standalone HTML page. Report text
// arrives escaped from Markdown, so raw HTML in the source is only our own markup.
type HTMLRenderer struct{}

func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (HTMLRenderer) Render(w io.Writer, r *comparison.Report) error {
	var content bytes.Buffer
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithASTTransformers(util.Prioritized(safeLinks{}, 100))),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	if err := md.Convert([]byte(Markdown(r)), &content); err != nil {
		return fmt.Errorf("markdown convert: %w", err)
	}

	_, err := fmt.Fprintf(w,
		"<!doctype html><html><head><meta charset='utf-8'><title>%s</title><style>%s</style></head><body>\n%s</body></html>\n",
		html.EscapeString(Title(r)), styleCSS, content.String())
	return err
}

// safeLinks points script-capable link and image destinations at "#". goldmark
// skips that check once raw HTML is enabled.
type safeLinks struct{}

func (safeLinks) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := n.(type) {
		case *ast.Link:
			if gmhtml.IsDangerousURL(l.Destination) {
				l.Destination = []byte("#")
			}
		case *ast.Image:
			if gmhtml.IsDangerousURL(l.Destination) {
				l.Destination = []byte("#")
			}
		}
		return ast.WalkContinue, nil
	})
}
