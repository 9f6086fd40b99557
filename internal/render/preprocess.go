package render

import (
	"regexp"
	"strings"
)

// Highlight placeholders are Private Use Area runes. They pass through
// Goldmark untouched, so <mark> can be produced without raw HTML support.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// Preprocessor prepares a record text field for Goldmark.
type Preprocessor struct{}

// Preprocess normalizes line endings, turns ==text== into placeholders
// and compresses runs of blank lines.
func (p *Preprocessor) Preprocess(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	content = multipleBlankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// ConvertMarkPlaceholders turns the highlight placeholders into <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.NewReplacer(
		MarkStartPlaceholder, "<mark>",
		MarkEndPlaceholder, "</mark>",
	).Replace(content)
}
