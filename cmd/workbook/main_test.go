package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/opencs408/workbook"
	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// mockAssembler records the build it was asked for.
type mockAssembler struct {
	opts   int
	out    string
	res    *workbook.Result
	err    error
	closed bool
}

func (m *mockAssembler) Assemble(_ context.Context, outPath string) (*workbook.Result, error) {
	m.out = outPath
	if m.err != nil {
		return nil, m.err
	}
	res := m.res
	if res == nil {
		res = &workbook.Result{Path: outPath, Records: 3, Subgroups: 2, Pages: 4, Duration: 1500 * time.Millisecond}
	}
	return res, nil
}

func (m *mockAssembler) Close() error {
	m.closed = true
	return nil
}

type testEnv struct {
	*Environment
	dir       string
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	assembler *mockAssembler
	cfgPath   string
	dbPath    string
}

// newTestEnv writes a config pointing into a temp directory and returns an
// environment whose assembler is a mock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	te := &testEnv{
		dir:       dir,
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		assembler: &mockAssembler{},
		cfgPath:   filepath.Join(dir, "workbook.yaml"),
		dbPath:    filepath.Join(dir, "questions.db"),
	}
	cfg := fmt.Sprintf(`database:
  path: %q
output:
  path: %q
font:
  path: %q
images:
  baseDir: %q
  dir: %q
`, te.dbPath, filepath.Join(dir, "book.pdf"), filepath.Join(dir, "font.ttf"), dir, filepath.Join(dir, "images"))
	if err := os.WriteFile(te.cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	te.Environment = &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdin:  strings.NewReader(""),
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(string) string { return "" },
		NewLogger: func(*config.Config) (*zap.Logger, io.Closer, error) {
			return zaptest.NewLogger(t), nopCloser{}, nil
		},
		NewAssembler: func(_ catalog.Source, opts ...workbook.Option) (Assembler, error) {
			te.assembler.opts = len(opts)
			return te.assembler, nil
		},
	}
	return te
}

func (te *testEnv) run(args ...string) int {
	full := append([]string{"workbook"}, args...)
	return runMain(context.Background(), full, te.Environment)
}

// withConfig appends the config flag.
func (te *testEnv) withConfig(args ...string) []string {
	return append(args, "--config", te.cfgPath)
}

func sampleRecords() []catalog.Record {
	mk := func(id string, status catalog.Status) catalog.Record {
		return catalog.Record{
			ID:            id,
			Group:         catalog.Group(id[:2]),
			Subgroup:      id[2:4],
			Kind:          catalog.KindSingleChoice,
			Status:        status,
			Body:          "题干 " + id,
			ChoiceA:       "甲",
			ChoiceB:       "乙",
			CorrectAnswer: "A",
		}
	}
	return []catalog.Record{
		mk("DS01000001", catalog.StatusPublished),
		mk("DS01000002", catalog.StatusDraft),
		mk("OS02000001", catalog.StatusPublished),
	}
}

// seed imports sampleRecords through the import command.
func (te *testEnv) seed(t *testing.T) {
	t.Helper()
	data, err := json.Marshal(sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(te.dir, "seed.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if code := te.run(te.withConfig("import", path, "-q")...); code != ExitSuccess {
		t.Fatalf("seed import exit = %d, stderr: %s", code, te.stderr.String())
	}
	te.stdout.Reset()
	te.stderr.Reset()
}

// ---------------------------------------------------------------------------
// TestRunMain
// ---------------------------------------------------------------------------

func TestRunMain_Version(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)

	if code := te.run("version"); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(te.stdout.String(), "workbook "+Version) {
		t.Errorf("stdout = %q", te.stdout.String())
	}
}

func TestRunMain_Help(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"main usage", []string{"help"}, "Commands:"},
		{"command usage", []string{"help", "duplicate"}, "workbook duplicate <id>"},
		{"unknown command", []string{"help", "nope"}, "Commands:"},
		{"flag help", []string{"build", "--help"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			te := newTestEnv(t)
			if code := te.run(tt.args...); code != ExitSuccess {
				t.Fatalf("exit = %d, stderr: %s", code, te.stderr.String())
			}
			if tt.want != "" && !strings.Contains(te.stdout.String(), tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, te.stdout.String())
			}
		})
	}
}

func TestRunMain_UsageErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"build", "--bogus"}},
		{"extra build argument", []string{"build", "extra"}},
		{"import without file", []string{"import"}},
		{"duplicate without id", []string{"duplicate"}},
		{"new without body", []string{"new", "--group", "DS", "--chapter", "01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			te := newTestEnv(t)
			if code := te.run(te.withConfig(tt.args...)...); code != ExitUsage {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, ExitUsage, te.stderr.String())
			}
		})
	}
}

func TestRunMain_MissingConfig(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)

	code := te.run("stats", "--config", filepath.Join(te.dir, "absent.yaml"))
	if code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(te.stderr.String(), "hint:") {
		t.Errorf("stderr should carry a hint: %s", te.stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunBuild
// ---------------------------------------------------------------------------

func TestRunBuild_MissingDatabase(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)

	if code := te.run(te.withConfig()...); code != ExitIO {
		t.Errorf("exit = %d, want %d", code, ExitIO)
	}
	if !strings.Contains(te.stderr.String(), "database not found") {
		t.Errorf("stderr = %q", te.stderr.String())
	}
	if _, err := os.Stat(te.dbPath); !os.IsNotExist(err) {
		t.Error("build must not create the database")
	}
}

func TestRunBuild_Success(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	te.seed(t)

	out := filepath.Join(te.dir, "custom.pdf")
	code := te.run(te.withConfig("build", "-o", out, "--date", "2026-10-01", "--page-size", "letter")...)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr: %s", code, te.stderr.String())
	}
	if te.assembler.out != out {
		t.Errorf("assembled to %q, want %q", te.assembler.out, out)
	}
	if !te.assembler.closed {
		t.Error("assembler should be closed")
	}
	if te.assembler.opts == 0 {
		t.Error("assembler received no options")
	}
	if !strings.Contains(te.stdout.String(), "3 records in 2 chapters, 4 pages") {
		t.Errorf("stdout = %q", te.stdout.String())
	}
}

func TestRunBuild_Quiet(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	te.seed(t)

	if code := te.run(te.withConfig("-q")...); code != ExitSuccess {
		t.Fatalf("exit = %d, stderr: %s", code, te.stderr.String())
	}
	if te.stdout.Len() != 0 {
		t.Errorf("quiet build printed %q", te.stdout.String())
	}
}

func TestRunBuild_EmptyCatalog(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	te.seed(t)
	te.assembler.err = workbook.ErrEmptyCatalog

	if code := te.run(te.withConfig("build")...); code != ExitSuccess {
		t.Fatalf("exit = %d, want %d", code, ExitSuccess)
	}
	if !strings.Contains(te.stderr.String(), "warning:") {
		t.Errorf("stderr should warn: %q", te.stderr.String())
	}
}

func TestRunBuild_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantHint bool
	}{
		{"browser", fmt.Errorf("%w: no chrome", workbook.ErrBrowserConnect), ExitBrowser, true},
		{"font", fmt.Errorf("%w: fonts/x.ttf", workbook.ErrFontNotFound), ExitIO, true},
		{"timeout", fmt.Errorf("paginate: %w", context.DeadlineExceeded), ExitGeneral, true},
		{"other", errors.New("boom"), ExitGeneral, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			te := newTestEnv(t)
			te.seed(t)
			te.assembler.err = tt.err

			if code := te.run(te.withConfig("build")...); code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if got := strings.Contains(te.stderr.String(), "hint:"); got != tt.wantHint {
				t.Errorf("hint present = %v, want %v: %s", got, tt.wantHint, te.stderr.String())
			}
		})
	}
}

func TestRunBuild_InvalidTimeout(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	te.seed(t)

	if code := te.run(te.withConfig("build", "--timeout", "soon")...); code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestConfigCommand
// ---------------------------------------------------------------------------

func TestRunConfig(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)

	if code := te.run(te.withConfig("config", "--db", "other.db")...); code != ExitSuccess {
		t.Fatalf("exit = %d, stderr: %s", code, te.stderr.String())
	}
	out := te.stdout.String()
	for _, want := range []string{"other.db", "book.pdf", "dateLabel"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}
