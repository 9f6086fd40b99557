package workbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/outline"
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 1.0
)

// paperInches maps page sizes to portrait width and height.
var paperInches = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

// LayoutSettings configures the printed page.
type LayoutSettings struct {
	Size   string  // "a4", "letter", "legal"
	Margin float64 // inches, applied to all sides
}

// DefaultLayout returns A4 with 1 inch margins.
func DefaultLayout() LayoutSettings {
	return LayoutSettings{Size: PageSizeA4, Margin: DefaultMargin}
}

// Validate checks the page size (case-insensitive) and margin bounds.
func (l LayoutSettings) Validate() error {
	if _, ok := paperInches[strings.ToLower(l.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, l.Size)
	}
	if l.Margin < MinMargin || l.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, l.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Dimensions returns the paper width and height in inches. Unknown sizes
// fall back to A4.
func (l LayoutSettings) Dimensions() (width, height float64) {
	d, ok := paperInches[strings.ToLower(l.Size)]
	if !ok {
		d = paperInches[PageSizeA4]
	}
	return d[0], d[1]
}

// Result summarizes an assembly run.
type Result struct {
	RunID     string
	Path      string
	Records   int
	Groups    int
	Subgroups int
	Pages     int
	Skipped   int // image references omitted from the document
	Duration  time.Duration
	Outline   []outline.Node
}

// summarize fills the record and grouping counts from the sorted records.
func (r *Result) summarize(runs []catalog.GroupRun) {
	r.Groups = len(runs)
	for _, g := range runs {
		r.Subgroups += len(g.Subgroups)
		r.Records += g.Len()
	}
}
