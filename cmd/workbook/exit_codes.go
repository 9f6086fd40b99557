package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/opencs408/workbook"
	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/config"
	"github.com/opencs408/workbook/internal/outline"
)

// Exit codes.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Success, including an empty catalog
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or record fields
	ExitIO       = 3 // Missing database, font or file, permission denied
	ExitBrowser  = 4 // Browser/Chrome errors
	ExitArtifact = 5 // Printed PDF missing or unreadable
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrDatabaseNotFound = errors.New("database not found")
)

// usageError marks a flag parsing failure. --help passes through.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// hinted appends an actionable hint to an error message.
type hinted struct {
	err  error
	hint string
}

func (h *hinted) Error() string { return h.err.Error() + h.hint }
func (h *hinted) Unwrap() error { return h.err }

func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return &hinted{err: err, hint: hint}
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, workbook.ErrEmptyCatalog) {
		return ExitSuccess
	}

	if errors.Is(err, outline.ErrArtifactUnavailable) {
		return ExitArtifact
	}

	if errors.Is(err, workbook.ErrBrowserConnect) ||
		errors.Is(err, workbook.ErrPageCreate) ||
		errors.Is(err, workbook.ErrPageLoad) ||
		errors.Is(err, workbook.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, workbook.ErrFontNotFound) ||
		errors.Is(err, ErrDatabaseNotFound) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, workbook.ErrInvalidPageSize) ||
		errors.Is(err, workbook.ErrInvalidMargin) ||
		errors.Is(err, catalog.ErrUnknownGroup) ||
		errors.Is(err, catalog.ErrUnknownSubgroup) ||
		errors.Is(err, catalog.ErrInvalidKind) ||
		errors.Is(err, catalog.ErrInvalidStatus) ||
		errors.Is(err, catalog.ErrEmptyBody) ||
		errors.Is(err, catalog.ErrIDMismatch) ||
		errors.Is(err, catalog.ErrMalformedIdentifier) {
		return ExitUsage
	}

	return ExitGeneral
}
