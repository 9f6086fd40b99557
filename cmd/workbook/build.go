package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/opencs408/workbook"
	"github.com/opencs408/workbook/internal/assets"
	"github.com/opencs408/workbook/internal/config"
	"github.com/opencs408/workbook/internal/dateutil"
	"github.com/opencs408/workbook/internal/hints"
	"github.com/opencs408/workbook/internal/images"
	"github.com/opencs408/workbook/internal/render"
	"github.com/opencs408/workbook/internal/section"
)

// runBuild assembles the study PDF. An empty catalog is reported as a
// warning, not a failure.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usageError(fmt.Errorf("unexpected arguments: %v", rest))
	}

	sess, err := openSession(&f.common, f.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg := sess.cfg

	opts, err := assemblerOptions(cfg, sess.logger, env)
	if err != nil {
		return err
	}
	a, err := env.NewAssembler(sess.store, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			sess.logger.Debug("closing browser", zap.Error(cerr))
		}
	}()

	res, err := a.Assemble(ctx, cfg.Output.Path)
	switch {
	case errors.Is(err, workbook.ErrEmptyCatalog):
		fmt.Fprintf(env.Stderr, "warning: %v%s\n", err, hints.ForEmptyCatalog())
		return nil
	case err != nil:
		return withHint(err, buildHint(err, cfg))
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "%s: %d records in %d chapters, %d pages (%s)\n",
			res.Path, res.Records, res.Subgroups, res.Pages, res.Duration.Round(time.Millisecond))
		if res.Skipped > 0 {
			fmt.Fprintf(env.Stdout, "  %d image references omitted\n", res.Skipped)
		}
	}
	return nil
}

// assemblerOptions translates the effective config into assembler options.
func assemblerOptions(cfg *config.Config, logger *zap.Logger, env *Environment) ([]workbook.Option, error) {
	fontPath := cfg.Font.Path
	if fontPath != "" {
		abs, err := filepath.Abs(fontPath)
		if err != nil {
			return nil, fmt.Errorf("resolving font path: %w", err)
		}
		fontPath = abs
	}

	date, err := dateutil.ResolveDate(cfg.Cover.Date, env.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: cover.date: %v", ErrUsage, err)
	}
	if date != "" {
		date = cfg.Cover.DateLabel + date
	}

	opts := []workbook.Option{
		workbook.WithLogger(logger),
		workbook.WithFont(render.Font{Family: cfg.Font.Family, Path: fontPath}),
		workbook.WithLayout(workbook.LayoutSettings{Size: cfg.Page.Size, Margin: cfg.Page.Margin}),
		workbook.WithCover(section.CoverData{Title: cfg.Cover.Title, Subtitle: cfg.Cover.Subtitle, Date: date}),
		workbook.WithResolver(images.NewFileResolver(cfg.Images.BaseDir)),
		workbook.WithImageDir(cfg.Images.BaseDir),
		workbook.WithMaxImageWidth(cfg.Images.MaxWidth),
		workbook.WithKeepHTML(cfg.Output.KeepHTML),
	}

	if timeout, err := cfg.Browser.TimeoutDuration(); err != nil {
		return nil, err
	} else if timeout > 0 {
		opts = append(opts, workbook.WithTimeout(timeout))
	}

	if cfg.Assets.BasePath != "" {
		loader, err := assets.NewAssetResolver(cfg.Assets.BasePath)
		if err != nil {
			return nil, fmt.Errorf("%w: assets.basePath: %v", ErrUsage, err)
		}
		opts = append(opts, workbook.WithAssetLoader(loader))
	}
	return opts, nil
}

// buildHint picks the hint matching a build failure.
func buildHint(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, workbook.ErrFontNotFound):
		return hints.ForFontNotFound(cfg.Font.Path)
	case errors.Is(err, workbook.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, workbook.ErrPageLoad):
		return hints.ForTimeout()
	}
	if filepath.Dir(cfg.Output.Path) != "." && !dirExists(filepath.Dir(cfg.Output.Path)) {
		return hints.ForOutputDirectory()
	}
	return ""
}
