package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates Markdown conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// MarkdownConverter converts one Markdown text field to an HTML fragment.
type MarkdownConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts Markdown with goldmark.
type GoldmarkConverter struct {
	md  goldmark.Markdown
	pre *Preprocessor
}

// NewGoldmarkConverter creates a GoldmarkConverter for record text. Only
// paragraphs, fenced code blocks, pipe tables, code spans, links and
// images are markup: a line such as "2. ..." or "# define" is question
// text, not a list or a heading, and "*p" in C code is not emphasis. Code
// is highlighted with Chroma classes.
func NewGoldmarkConverter() *GoldmarkConverter {
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewLinkParser(), 200),
		),
	)
	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(
			extension.Table,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			// Question texts are typed line by line; every newline is kept.
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &GoldmarkConverter{md: md, pre: &Preprocessor{}}
}

// ToHTML returns the HTML fragment for content. Raw HTML in content is
// escaped and printed as text.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(c.pre.Preprocess(content)), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return ConvertMarkPlaceholders(buf.String()), nil
}

var _ MarkdownConverter = (*GoldmarkConverter)(nil)
