package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gosimple/slug"

	"github.com/opencs408/workbook/internal/assets"
	"github.com/opencs408/workbook/internal/section"
)

// Sentinel errors for document rendering.
var (
	ErrTemplateParse  = errors.New("document template parse failed")
	ErrTemplateRender = errors.New("document template rendering failed")
)

// DefaultMaxImageWidth caps image width in CSS pixels. It is the printable
// width of A4 with 1 inch margins at 96 dpi.
const DefaultMaxImageWidth = 602

// Font describes the embedded document font.
type Font struct {
	Family string
	Path   string // absolute path to a TTF/OTF file; empty uses system fonts
}

// Meta is the document level data of the template.
type Meta struct {
	Title string
	RunID string
	Lang  string
}

// HTMLRenderer lays blocks out as an HTML document.
type HTMLRenderer struct {
	md            MarkdownConverter
	tmpl          *template.Template
	style         string
	labels        section.Labels
	font          Font
	imageDir      string
	maxImageWidth int
}

// Option configures an HTMLRenderer.
type Option func(*HTMLRenderer)

// WithMarkdown replaces the Markdown converter.
func WithMarkdown(md MarkdownConverter) Option {
	return func(r *HTMLRenderer) { r.md = md }
}

// WithLabels sets the answer and explanation labels.
func WithLabels(l section.Labels) Option {
	return func(r *HTMLRenderer) { r.labels = l }
}

// WithFont sets the document font.
func WithFont(f Font) Option {
	return func(r *HTMLRenderer) { r.font = f }
}

// WithImageDir anchors relative images inside Markdown text.
func WithImageDir(dir string) Option {
	return func(r *HTMLRenderer) { r.imageDir = dir }
}

// WithMaxImageWidth caps image width in CSS pixels. Values <= 0 are ignored.
func WithMaxImageWidth(px int) Option {
	return func(r *HTMLRenderer) {
		if px > 0 {
			r.maxImageWidth = px
		}
	}
}

// NewHTMLRenderer loads the document template and stylesheet through loader.
func NewHTMLRenderer(loader assets.AssetLoader, opts ...Option) (*HTMLRenderer, error) {
	tmplContent, err := loader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("document").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, err
	}

	r := &HTMLRenderer{
		tmpl:          tmpl,
		style:         style,
		labels:        section.DefaultLabels(),
		maxImageWidth: DefaultMaxImageWidth,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.md == nil {
		r.md = NewGoldmarkConverter()
	}
	return r, nil
}

type templateData struct {
	Meta
	Body template.HTML
}

// Render returns the complete HTML document for blocks.
func (r *HTMLRenderer) Render(ctx context.Context, blocks []section.Block, meta Meta) (string, error) {
	if meta.Lang == "" {
		meta.Lang = "zh-CN"
	}

	body, err := r.renderBody(ctx, blocks)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	// #nosec G203 -- body is assembled from escaped text and Goldmark output without raw HTML
	if err := r.tmpl.Execute(&buf, templateData{Meta: meta, Body: template.HTML(body)}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return InjectCSS(buf.String(), r.stylesheet()), nil
}

func (r *HTMLRenderer) renderBody(ctx context.Context, blocks []section.Block) (string, error) {
	var (
		sb  strings.Builder
		ids = make(map[string]int)
	)
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := r.renderBlock(ctx, &sb, b, ids); err != nil {
			return "", fmt.Errorf("block %s (%s): %w", b.Kind, b.RecordID, err)
		}
	}
	return sb.String(), nil
}

func (r *HTMLRenderer) renderBlock(ctx context.Context, sb *strings.Builder, b section.Block, ids map[string]int) error {
	esc := html.EscapeString

	switch b.Kind {
	case section.KindSpacer:
		fmt.Fprintf(sb, "<div class=\"spacer\" style=\"height: %spt\"></div>\n", strconv.FormatFloat(b.Height, 'f', -1, 64))
	case section.KindCoverTitle:
		fmt.Fprintf(sb, "<h1 class=\"cover-title\">%s</h1>\n", esc(b.Text))
	case section.KindCoverText:
		fmt.Fprintf(sb, "<p class=\"cover-text\">%s</p>\n", esc(b.Text))
	case section.KindItemsHeading:
		fmt.Fprintf(sb, "<h1 class=\"section-title\" id=\"%s\">%s</h1>\n", anchorID(ids, "items"), esc(b.Text))
	case section.KindAnswersHeading:
		fmt.Fprintf(sb, "<h1 class=\"section-title\" id=\"%s\">%s</h1>\n", anchorID(ids, "answers"), esc(b.Text))
	case section.KindGroupHeading:
		fmt.Fprintf(sb, "<h2 class=\"group\" id=\"%s\">%s</h2>\n",
			anchorID(ids, string(b.Group)+" "+b.Text), esc(b.Text))
	case section.KindSubgroupHeading:
		fmt.Fprintf(sb, "<h3 class=\"subgroup\" id=\"%s\">%s</h3>\n",
			anchorID(ids, string(b.Group)+b.Subgroup+" "+b.Text), esc(b.Text))
	case section.KindItem:
		text, err := r.markdown(ctx, b.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "<div class=\"item\" id=\"%s\"><span class=\"number\">%d.</span><div class=\"text\">%s</div></div>\n",
			anchorID(ids, "q "+b.RecordID), b.Number, text)
	case section.KindChoice:
		fmt.Fprintf(sb, "<p class=\"choice\">%c. %s</p>\n", b.Letter, esc(b.Text))
	case section.KindAnswer:
		text, err := r.markdown(ctx, b.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "<div class=\"answer\" id=\"%s\"><span class=\"number\">%d.</span><span class=\"label\">%s</span><div class=\"text\">%s</div></div>\n",
			anchorID(ids, "a "+b.RecordID), b.Number, esc(r.labels.Answer), text)
	case section.KindExplanation:
		text, err := r.markdown(ctx, b.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "<div class=\"explanation\"><span class=\"label\">%s</span><div class=\"text\">%s</div></div>\n",
			esc(r.labels.Explanation), text)
	case section.KindImage:
		sb.WriteString(r.image(b))
	case section.KindPageBreak:
		sb.WriteString("<div class=\"page-break\"></div>\n")
	default:
		return fmt.Errorf("unknown block kind %d", int(b.Kind))
	}
	return nil
}

func (r *HTMLRenderer) markdown(ctx context.Context, text string) (string, error) {
	out, err := r.md.ToHTML(ctx, text)
	if err != nil {
		return "", err
	}
	return RewriteRelativeImages(out, r.imageDir)
}

// image scales the asset down to the width cap, keeping its aspect ratio.
func (r *HTMLRenderer) image(b section.Block) string {
	w, h := b.Image.Width, b.Image.Height
	if r.maxImageWidth > 0 && w > r.maxImageWidth {
		h = h * r.maxImageWidth / w
		w = r.maxImageWidth
	}
	size := ""
	if w > 0 && h > 0 {
		size = fmt.Sprintf(" width=\"%d\" height=\"%d\"", w, h)
	}
	return fmt.Sprintf("<figure class=\"image\"><img src=\"%s\" alt=\"%s\"%s /></figure>\n",
		html.EscapeString(FileURL(b.Image.Path)), html.EscapeString(b.RecordID), size)
}

// stylesheet returns the font face, the base style and the highlight
// classes.
func (r *HTMLRenderer) stylesheet() string {
	var sb strings.Builder
	if r.font.Path != "" {
		family := r.font.Family
		if family == "" {
			family = "WorkbookFont"
		}
		fmt.Fprintf(&sb, "@font-face { font-family: %q; src: url(%q); }\n", family, FileURL(r.font.Path))
		fmt.Fprintf(&sb, ":root { --workbook-font: %q; }\n", family)
	}
	sb.WriteString(r.style)
	sb.WriteString("\n")
	sb.WriteString(highlightCSS())
	return sb.String()
}

func highlightCSS() string {
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, styles.Get("github")); err != nil {
		return ""
	}
	return buf.String()
}

// anchorID slugs text into a unique element id.
func anchorID(ids map[string]int, text string) string {
	id := slug.Make(text)
	if id == "" {
		id = "section"
	}
	n := ids[id]
	ids[id] = n + 1
	if n > 0 {
		id += "-" + strconv.Itoa(n)
	}
	return id
}
