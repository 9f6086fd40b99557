package outline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"go.uber.org/zap/zaptest"

	"github.com/opencs408/workbook/internal/catalog"
)

// writeBlankPDF writes a valid PDF of n empty A4 pages to path.
func writeBlankPDF(t *testing.T, path string, n int) {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 0, n+2)
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range n {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for range n {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func readBookmarks(t *testing.T, path string) []pdfcpu.Bookmark {
	t.Helper()
	f, err := os.Open(path) // #nosec G304 -- test fixture
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	bms, err := api.Bookmarks(f, NewPDFWriter().Conf)
	if err != nil {
		t.Fatalf("reading bookmarks: %v", err)
	}
	return bms
}

type flatBookmark struct {
	depth int
	title string
	page  int
}

func flatten(bms []pdfcpu.Bookmark, depth int) []flatBookmark {
	var out []flatBookmark
	for _, b := range bms {
		out = append(out, flatBookmark{depth, b.Title, b.PageFrom})
		out = append(out, flatten(b.Kids, depth+1)...)
	}
	return out
}

func TestPDFWriter_PageCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	writeBlankPDF(t, in, 4)

	n, err := NewPDFWriter().PageCount(in)
	if err != nil {
		t.Fatalf("PageCount() unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("PageCount() = %d, want 4", n)
	}

	if _, err := NewPDFWriter().PageCount(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("PageCount() on a missing file should fail")
	}
}

func TestPDFWriter_SyncRealArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeBlankPDF(t, in, 4)

	s := &Synchronizer{Writer: NewPDFWriter(), Logger: zaptest.NewLogger(t)}
	records := []catalog.Record{
		rec("DS01000001", catalog.GroupDS, "01"),
		rec("DS01000002", catalog.GroupDS, "01"),
		rec("DS02000001", catalog.GroupDS, "02"),
	}
	if _, err := s.Sync(context.Background(), in, out, records); err != nil {
		t.Fatalf("Sync() unexpected error: %v", err)
	}

	n, err := api.PageCountFile(out)
	if err != nil || n != 4 {
		t.Fatalf("output pages = %d (err %v), want 4", n, err)
	}

	// pdfcpu pages are 1-based.
	want := []flatBookmark{
		{0, "习题", 2},
		{1, "数据结构", 2},
		{2, catalog.GroupDS.ChapterName("01"), 2},
		{2, catalog.GroupDS.ChapterName("02"), 3},
		{0, "答案解析", 4},
	}
	got := flatten(readBookmarks(t, out), 0)
	if len(got) != len(want) {
		t.Fatalf("bookmarks = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bookmark %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPDFWriter_ReplacesBookmarks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	first := filepath.Join(dir, "first.pdf")
	second := filepath.Join(dir, "second.pdf")
	writeBlankPDF(t, in, 2)

	w := NewPDFWriter()
	if err := w.Write(in, first, []Node{{Label: "旧", Page: 0}}); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	if err := w.Write(first, second, []Node{{Label: "新", Page: 1}}); err != nil {
		t.Fatalf("second Write() unexpected error: %v", err)
	}

	got := flatten(readBookmarks(t, second), 0)
	want := []flatBookmark{{0, "新", 2}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("bookmarks = %+v, want %+v", got, want)
	}
}
