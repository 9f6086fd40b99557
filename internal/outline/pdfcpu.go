package outline

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFWriter is the pdfcpu backed Writer.
type PDFWriter struct {
	Conf *model.Configuration // nil means relaxed validation defaults
}

// NewPDFWriter returns a PDFWriter with relaxed validation, which tolerates
// the minor deviations found in browser generated PDFs.
func NewPDFWriter() *PDFWriter {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFWriter{Conf: conf}
}

// PageCount implements Writer.
func (w *PDFWriter) PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

// Write implements Writer. Existing bookmarks in the artifact are replaced.
func (w *PDFWriter) Write(in, out string, tree []Node) error {
	conf := w.Conf
	if conf == nil {
		conf = NewPDFWriter().Conf
	}
	return api.AddBookmarksFile(in, out, toBookmarks(tree), true, conf)
}

// toBookmarks converts 0-based anchors to pdfcpu's 1-based page numbers.
func toBookmarks(nodes []Node) []pdfcpu.Bookmark {
	if len(nodes) == 0 {
		return nil
	}
	bms := make([]pdfcpu.Bookmark, len(nodes))
	for i, n := range nodes {
		bms[i] = pdfcpu.Bookmark{
			Title:    n.Label,
			PageFrom: n.Page + 1,
			Kids:     toBookmarks(n.Children),
		}
	}
	return bms
}
