package workbook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/render"
	"github.com/opencs408/workbook/internal/section"
)

// Job is one pagination request.
type Job struct {
	Blocks  []section.Block
	Meta    render.Meta
	Out     string // PDF destination
	HTMLOut string // optional copy of the HTML rendition
}

// Paginator lays blocks out into a paginated PDF and reports its page
// count.
type Paginator interface {
	Paginate(ctx context.Context, job Job) (pages int, err error)
	Close() error
}

// htmlRenderer turns blocks into a standalone HTML document.
type htmlRenderer interface {
	Render(ctx context.Context, blocks []section.Block, meta render.Meta) (string, error)
}

// pageCounter reads the number of pages of a PDF file.
type pageCounter interface {
	PageCount(path string) (int, error)
}

var (
	_ Paginator    = (*chromePaginator)(nil)
	_ htmlRenderer = (*render.HTMLRenderer)(nil)
)

// chromePaginator renders blocks to HTML and prints them with Chrome.
type chromePaginator struct {
	html    htmlRenderer
	pdf     pdfRenderer
	pages   pageCounter
	layout  LayoutSettings
	tempDir string // empty means the system temp directory
	logger  *zap.Logger
}

// Paginate writes job.Out and returns its page count.
func (p *chromePaginator) Paginate(ctx context.Context, job Job) (int, error) {
	doc, err := p.html.Render(ctx, job.Blocks, job.Meta)
	if err != nil {
		return 0, fmt.Errorf("rendering HTML: %w", err)
	}

	htmlPath, cleanup, err := fileutil.WriteTempFile(p.tempDir, doc, "html")
	if err != nil {
		return 0, err
	}
	defer cleanup()

	if job.HTMLOut != "" {
		if err := fileutil.CopyFile(htmlPath, job.HTMLOut); err != nil {
			return 0, fmt.Errorf("keeping HTML: %w", err)
		}
	}

	if err := p.pdf.RenderFromFile(ctx, htmlPath, job.Out, p.layout); err != nil {
		return 0, err
	}

	pages, err := p.pages.PageCount(job.Out)
	if err != nil {
		return 0, fmt.Errorf("%w: counting pages: %v", ErrPDFGeneration, err)
	}
	p.logger.Debug("document paginated",
		zap.Int("blocks", len(job.Blocks)),
		zap.Int("bytes", len(doc)),
		zap.Int("pages", pages))
	return pages, nil
}

// Close releases the browser.
func (p *chromePaginator) Close() error {
	return p.pdf.Close()
}
