// Package dateutil resolves the cover date setting.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits the format string, in bytes.
const MaxDateFormatLength = 50

// DefaultDateFormat is used by a bare "auto".
const DefaultDateFormat = "YYYY-MM-DD"

// Tokens in greedy order.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets names common formats. "cn" is the cover default.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"cn":       "YYYY年MM月DD日",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// Format renders t with a user format: tokens YYYY, YY, MMMM, MMM, MM, M,
// DD and D; text in brackets and every other character is literal.
func Format(format string, t time.Time) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d bytes", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	// Tokens are formatted one by one so literal text never reaches the Go
	// layout parser, where digits such as "1" or "2" are layout elements.
	var sb strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			sb.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(format[i:], tok.token) {
				sb.WriteString(t.Format(tok.goFmt))
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(format[i])
			i++
		}
	}
	return sb.String(), nil
}

// ResolveDate expands "auto" (DefaultDateFormat), "auto:FORMAT" and
// "auto:preset" against t. Any other value is returned unchanged.
func ResolveDate(value string, t time.Time) (string, error) {
	lower := strings.ToLower(value)
	switch {
	case !strings.HasPrefix(lower, "auto"):
		return value, nil
	case lower == "auto":
		return Format(DefaultDateFormat, t)
	case !strings.HasPrefix(lower, "auto:"):
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	}

	format := value[len("auto:"):]
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	return Format(format, t)
}
