// Package render lays the section block stream out as a single HTML5
// document ready for browser printing.
//
// Text fields of records are plain text with a small Markdown subset
// (fenced code, pipe tables, code spans, links and images). They pass
// through the preprocessor
// (line endings, ==highlight== marks), Goldmark with hard wraps and Chroma
// highlighting, and a path rewrite that anchors relative images in the
// image directory. Headings get slugged anchor ids. The document template
// and stylesheet come from internal/assets; the stylesheet is injected into
// the rendered template together with the @font-face rule of the CJK font.
//
// Pagination is left to the browser: page breaks are CSS break-after rules
// and the root workbook package prints the result with headless Chrome.
package render
