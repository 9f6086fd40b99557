package workbook

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyCatalog  = errors.New("no published records")
	ErrFontNotFound  = errors.New("font file not found")
	ErrPDFGeneration = errors.New("PDF generation failed")

	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Layout validation errors.
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidMargin   = errors.New("invalid margin")
)
