package hints

// ForBrowserConnect tests use t.Setenv and swap IsInContainer, so they do
// not run in parallel.

import (
	"strings"
	"testing"
)

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		env         map[string]string
		wantSandbox bool
		wantBin     bool
	}{
		{"ci", false, map[string]string{"CI": "true"}, true, true},
		{"docker", true, nil, true, true},
		{"docker sandbox already off", true, map[string]string{"ROD_NO_SANDBOX": "1"}, false, true},
		{"desktop with browser", false, map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withContainer(t, tt.container)
			for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN"} {
				t.Setenv(k, tt.env[k])
			}

			hint := ForBrowserConnect()
			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("browser bin hint = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if hint != "" && !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint format = %q", hint)
			}
		})
	}
}

func TestStaticHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"timeout", ForTimeout(), "browser.timeout"},
		{"font", ForFontNotFound("fonts/x.ttf"), "fonts/x.ttf"},
		{"empty catalog", ForEmptyCatalog(), "published"},
		{"database", ForDatabase("q.db"), "WORKBOOK_DB"},
		{"duplicate", ForDuplicateIdentifier(), "again"},
		{"output", ForOutputDirectory(), "writable"},
		{"config", ForConfigNotFound([]string{"workbook.yaml", "/home/u/.config/workbook/workbook.yaml"}), "create /home/u/.config/workbook/workbook.yaml"},
	}
	for _, tt := range tests {
		if !strings.HasPrefix(tt.got, "\n  hint: ") || !strings.Contains(tt.got, tt.want) {
			t.Errorf("%s hint = %q, want it to contain %q", tt.name, tt.got, tt.want)
		}
	}
	if formatHints(nil) != "" {
		t.Error("formatHints(nil) should be empty")
	}
}
