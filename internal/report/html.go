package report

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderHTML converts a Markdown report to HTML. Used when the requested
// report path ends in .html; .md reports are written as-is.
func RenderHTML(md []byte) []byte {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Tables
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return markdown.Render(doc, renderer)
}
