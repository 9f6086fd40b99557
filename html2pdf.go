package workbook

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/process"
)

// pdfRenderer prints a local HTML file to a PDF file. It exists so the
// paginator can be tested without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, htmlPath, pdfPath string, layout LayoutSettings) error
	Close() error
}

var _ pdfRenderer = (*rodRenderer)(nil)

// rodRenderer implements pdfRenderer with headless Chrome through go-rod.
// Rod downloads Chromium on first run unless ROD_BROWSER_BIN is set.
type rodRenderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	tree     *process.Tree
	timeout  time.Duration
	logger   *zap.Logger
}

func newRodRenderer(timeout time.Duration, logger *zap.Logger) *rodRenderer {
	return &rodRenderer{timeout: timeout, logger: logger}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// Chrome's sandbox is unavailable in most CI runners and containers.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l
	r.tree = process.Track(l.PID())
	r.logger.Debug("browser launched", zap.Int("pid", l.PID()))

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		r.kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close disconnects from the browser and reaps its process tree.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.kill()
	return err
}

func (r *rodRenderer) kill() {
	r.tree.Kill()
	r.tree = nil
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
}

// RenderFromFile opens htmlPath in a new tab and streams the printed PDF to
// pdfPath.
func (r *rodRenderer) RenderFromFile(ctx context.Context, htmlPath, pdfPath string, layout LayoutSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.ensureBrowser(); err != nil {
		return err
	}

	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "file://" + htmlPath})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stream, err := page.PDF(buildPDFOptions(layout))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	f, err := os.Create(pdfPath) // #nosec G304 -- staged path chosen by the assembler
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	if _, err := io.Copy(f, stream); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return nil
}

// buildPDFOptions maps the layout onto Chrome's print parameters. CSS page
// breaks are honored; Chrome's own header and footer are off.
func buildPDFOptions(layout LayoutSettings) *proto.PagePrintToPDF {
	width, height := layout.Dimensions()
	margin := layout.Margin
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
