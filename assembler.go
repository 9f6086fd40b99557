package workbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/assets"
	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/images"
	"github.com/opencs408/workbook/internal/outline"
	"github.com/opencs408/workbook/internal/render"
	"github.com/opencs408/workbook/internal/section"
)

// DefaultTimeout bounds a whole assembly run.
const DefaultTimeout = 2 * time.Minute

// DocumentLang is the language declared by the HTML rendition.
const DocumentLang = "zh-CN"

// Assembler runs the load, sort, build, paginate, outline and publish
// stages. Create with NewAssembler and Close when done.
type Assembler struct {
	source    catalog.Source
	paginator Paginator
	writer    outline.Writer
	policy    outline.PagePolicy
	resolver  images.Resolver
	loader    assets.AssetLoader
	font      render.Font
	layout    LayoutSettings
	cover     section.CoverData
	labels    section.Labels
	maxWidth  int
	imageDir  string
	keepHTML  bool
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPaginator replaces the Chrome paginator.
func WithPaginator(p Paginator) Option {
	return func(a *Assembler) { a.paginator = p }
}

// WithOutlineWriter replaces the pdfcpu bookmark writer.
func WithOutlineWriter(w outline.Writer) Option {
	return func(a *Assembler) { a.writer = w }
}

// WithPagePolicy sets how outline anchors are mapped to pages.
func WithPagePolicy(p outline.PagePolicy) Option {
	return func(a *Assembler) { a.policy = p }
}

// WithResolver sets the image resolver. Without one, images are omitted.
func WithResolver(r images.Resolver) Option {
	return func(a *Assembler) { a.resolver = r }
}

// WithAssetLoader overrides the embedded stylesheet and template.
func WithAssetLoader(l assets.AssetLoader) Option {
	return func(a *Assembler) { a.loader = l }
}

// WithFont sets the document font. A non-empty path must exist when
// Assemble runs.
func WithFont(f render.Font) Option {
	return func(a *Assembler) { a.font = f }
}

// WithLayout sets page size and margins.
func WithLayout(l LayoutSettings) Option {
	return func(a *Assembler) { a.layout = l }
}

// WithCover sets the cover texts.
func WithCover(c section.CoverData) Option {
	return func(a *Assembler) { a.cover = c }
}

// WithLabels overrides the section and outline headings.
func WithLabels(l section.Labels) Option {
	return func(a *Assembler) { a.labels = l }
}

// WithMaxImageWidth caps image width in CSS pixels.
func WithMaxImageWidth(px int) Option {
	return func(a *Assembler) { a.maxWidth = px }
}

// WithImageDir sets the directory relative Markdown images in record text
// are resolved against.
func WithImageDir(dir string) Option {
	return func(a *Assembler) { a.imageDir = dir }
}

// WithKeepHTML writes the HTML rendition next to the published PDF.
func WithKeepHTML(keep bool) Option {
	return func(a *Assembler) { a.keepHTML = keep }
}

// WithTimeout bounds a whole run.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("workbook: WithTimeout duration must be positive")
	}
	return func(a *Assembler) { a.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler creates an Assembler reading from source.
func NewAssembler(source catalog.Source, opts ...Option) (*Assembler, error) {
	if source == nil {
		return nil, errors.New("workbook: nil record source")
	}
	a := &Assembler{
		source:   source,
		policy:   outline.OnePagePerSubgroup{},
		layout:   DefaultLayout(),
		labels:   section.DefaultLabels(),
		maxWidth: render.DefaultMaxImageWidth,
		timeout:  DefaultTimeout,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.layout.Validate(); err != nil {
		return nil, err
	}
	if a.writer == nil {
		a.writer = outline.NewPDFWriter()
	}
	if a.paginator == nil {
		p, err := a.newChromePaginator()
		if err != nil {
			return nil, err
		}
		a.paginator = p
	}
	return a, nil
}

func (a *Assembler) newChromePaginator() (*chromePaginator, error) {
	loader := a.loader
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	html, err := render.NewHTMLRenderer(loader,
		render.WithLabels(a.labels),
		render.WithFont(a.font),
		render.WithMaxImageWidth(a.maxWidth),
		render.WithImageDir(a.imageDir),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing HTML renderer: %w", err)
	}

	counter, ok := a.writer.(pageCounter)
	if !ok {
		counter = outline.NewPDFWriter()
	}
	return &chromePaginator{
		html:   html,
		pdf:    newRodRenderer(a.timeout, a.logger),
		pages:  counter,
		layout: a.layout,
		logger: a.logger,
	}, nil
}

// Close releases the paginator.
func (a *Assembler) Close() error {
	if a.paginator != nil {
		return a.paginator.Close()
	}
	return nil
}

// Assemble builds the document and publishes it at outPath. On failure no
// staged file is left behind and an existing outPath is untouched.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (a *Assembler) Assemble(ctx context.Context, outPath string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	start := a.now()
	runID := uuid.NewString()
	log := a.logger.With(zap.String("run", runID))

	if a.font.Path != "" && !fileutil.FileExists(a.font.Path) {
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, a.font.Path)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	records, err := a.source.Published(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	records = catalog.Eligible(records)
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	catalog.Sort(records)
	log.Debug("records loaded", zap.Int("count", len(records)))

	skipped := 0
	builder := section.NewBuilder(a.resolver,
		section.WithLabels(a.labels),
		section.WithSkippedImageHook(func(rec catalog.Record, r images.Result) {
			skipped++
			log.Warn("image omitted", zap.String("id", rec.ID), zap.Error(r.Err))
		}),
	)
	doc, err := builder.Build(records)
	if err != nil {
		return nil, fmt.Errorf("building sections: %w", err)
	}
	blocks := append(section.Cover(a.cover, a.labels), doc.Blocks...)

	var staged []string
	defer func() {
		if cerr := removeStaged(staged); cerr != nil {
			if err != nil {
				err = multierr.Append(err, cerr)
			} else {
				log.Warn("removing staged files", zap.Error(cerr))
			}
		}
	}()

	printed, err := fileutil.StagePath(outPath)
	if err != nil {
		return nil, err
	}
	staged = append(staged, printed)

	job := Job{
		Blocks: blocks,
		Meta:   render.Meta{Title: a.cover.Title + a.cover.Subtitle, RunID: runID, Lang: DocumentLang},
		Out:    printed,
	}
	var keptHTML string
	if a.keepHTML {
		keptHTML = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".html"
		if job.HTMLOut, err = fileutil.StagePath(keptHTML); err != nil {
			return nil, err
		}
		staged = append(staged, job.HTMLOut)
	}
	pages, err := a.paginator.Paginate(ctx, job)
	if err != nil {
		return nil, err
	}

	marked, err := fileutil.StagePath(outPath)
	if err != nil {
		return nil, err
	}
	staged = append(staged, marked)

	sync := &outline.Synchronizer{
		Writer: a.writer,
		Policy: a.policy,
		Labels: outline.Labels{Items: a.labels.Items, Answers: a.labels.Answers},
		Logger: log,
	}
	tree, err := sync.Sync(ctx, printed, marked, records)
	if err != nil {
		return nil, err
	}

	if err := fileutil.Publish(marked, outPath); err != nil {
		return nil, err
	}
	if keptHTML != "" {
		// The PDF is already in place; a lost HTML copy does not fail the run.
		if err := fileutil.Publish(job.HTMLOut, keptHTML); err != nil {
			log.Warn("keeping HTML", zap.String("path", keptHTML), zap.Error(err))
		}
	}

	res = &Result{
		RunID:    runID,
		Path:     outPath,
		Pages:    pages,
		Skipped:  skipped,
		Duration: a.now().Sub(start),
		Outline:  tree,
	}
	res.summarize(catalog.GroupRuns(records))
	log.Info("document assembled",
		zap.String("path", outPath),
		zap.Int("records", res.Records),
		zap.Int("pages", res.Pages),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// removeStaged deletes staged files. Files already moved into place are
// skipped.
func removeStaged(paths []string) error {
	var err error
	for _, p := range paths {
		if rerr := os.Remove(p); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	return err
}
