package main

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/opencs408/workbook"
	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/config"
)

// Assembler is the part of workbook.Assembler the build command uses.
type Assembler interface {
	Assemble(ctx context.Context, outPath string) (*workbook.Result, error)
	Close() error
}

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// NewLogger builds the program logger from the effective config.
	NewLogger func(cfg *config.Config) (*zap.Logger, io.Closer, error)
	// NewAssembler creates the document assembler.
	NewAssembler func(src catalog.Source, opts ...workbook.Option) (Assembler, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		NewLogger: func(cfg *config.Config) (*zap.Logger, io.Closer, error) {
			return cfg.Logging.Prepare(os.Stdout, os.Stderr)
		},
		NewAssembler: func(src catalog.Source, opts ...workbook.Option) (Assembler, error) {
			a, err := workbook.NewAssembler(src, opts...)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}
