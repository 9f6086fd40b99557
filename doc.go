// Package workbook assembles the published records of a question bank into
// a study PDF.
//
// The document has a cover, an items section grouped by subject and
// chapter, and an answers section. Items and answers share one running
// number. After Chrome paginates the HTML rendition, the PDF bookmarks are
// rebuilt to mirror the subject/chapter hierarchy.
//
// Basic usage:
//
//	a, err := workbook.NewAssembler(store,
//		workbook.WithFont(render.Font{Family: "Noto Sans SC", Path: fontPath}),
//		workbook.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	res, err := a.Assemble(ctx, "Open-CS-408习题册.pdf")
//
// An empty catalog yields ErrEmptyCatalog and writes nothing. Any other
// failure removes the staged files and leaves a previously published
// artifact untouched.
package workbook
