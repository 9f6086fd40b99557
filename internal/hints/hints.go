// Package hints provides actionable error hints, formatted as
// "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/opencs408/workbook/internal/fileutil"
)

// IsInContainer detects a Docker container by its /.dockerenv file.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect suggests the rod environment variables relevant to the
// current environment.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	return formatHints(hints)
}

// ForTimeout suggests a longer browser timeout.
func ForTimeout() string {
	return format("for large question banks, raise browser.timeout or use --timeout")
}

// ForConfigNotFound suggests --config or one of the searched locations.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/workbook.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForFontNotFound explains where the font is expected.
func ForFontNotFound(path string) string {
	return format("place NotoSansSC-Regular.ttf at " + path + ", or set font.path / WORKBOOK_FONT")
}

// ForEmptyCatalog explains which records are assembled.
func ForEmptyCatalog() string {
	return format("only records with status \"published\" are assembled; see `workbook stats`")
}

// ForDatabase suggests checking the database location.
func ForDatabase(path string) string {
	return format("check database.path (" + path + ") or set WORKBOOK_DB")
}

// ForDuplicateIdentifier suggests retrying after a concurrent insert.
func ForDuplicateIdentifier() string {
	return format("another record took this id; run the command again")
}

// ForOutputDirectory suggests checking the output location.
func ForOutputDirectory() string {
	return format("check the output directory exists and is writable")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
