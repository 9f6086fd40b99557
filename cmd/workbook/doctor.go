package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/config"
	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/hints"
	"github.com/opencs408/workbook/internal/store"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	Project  projectInfo `json:"project"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// projectInfo reports the files a build needs.
type projectInfo struct {
	ConfigFile   string `json:"config_file,omitempty"`
	Database     string `json:"database"`
	Records      int    `json:"records"`
	Published    int    `json:"published"`
	Font         string `json:"font"`
	FontFound    bool   `json:"font_found"`
	OutputDir    string `json:"output_dir"`
	TempWritable bool   `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	c, s, _, err := parseSimpleFlags("doctor", args, env.Stderr, printDoctorUsage)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	result := runDoctor(c, env)
	if s.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(c *commonFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result, env)
	checkProject(result, c, env)
	checkTemp(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkChrome locates Chrome the way the renderer will.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; rod will download Chromium on first build, or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from rod lookup or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container = hints.IsInContainer()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkProject verifies config, database, font and output directory.
func checkProject(result *doctorResult, c *commonFlags, env *Environment) {
	cfg, path, err := config.Load(c.config)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	cfg.ApplyEnv(env.Getenv)
	c.apply(cfg)

	p := &result.Project
	p.ConfigFile = path
	p.Database = cfg.Database.Path
	p.Font = cfg.Font.Path
	p.OutputDir = filepath.Dir(cfg.Output.Path)

	if !fileutil.FileExists(cfg.Database.Path) {
		result.Errors = append(result.Errors, fmt.Sprintf("Database not found at %s", cfg.Database.Path))
	} else if st, err := store.Open(cfg.Database.Path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Database unreadable: %v", err))
	} else {
		stats, err := st.Stats(context.Background())
		_ = st.Close()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Database unreadable: %v", err))
		} else {
			p.Records = stats.Total
			p.Published = stats.ByStatus[catalog.StatusPublished]
			if p.Published == 0 {
				result.Warnings = append(result.Warnings, "No published records; the build will produce nothing")
			}
		}
	}

	p.FontFound = fileutil.FileExists(cfg.Font.Path)
	if !p.FontFound {
		result.Errors = append(result.Errors, fmt.Sprintf("Font not found at %s", cfg.Font.Path))
	}
	if !dirExists(p.OutputDir) {
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory %s does not exist", p.OutputDir))
	}
}

func checkTemp(result *doctorResult) {
	f, err := os.CreateTemp("", "workbook-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.Project.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "workbook doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	p := r.Project
	fmt.Fprintln(w, "Project")
	if p.ConfigFile != "" {
		fmt.Fprintf(w, "  [OK] Config: %s\n", p.ConfigFile)
	} else {
		fmt.Fprintln(w, "  [OK] Config: built-in defaults")
	}
	if p.Database != "" {
		fmt.Fprintf(w, "  Database: %s (%d records, %d published)\n", p.Database, p.Records, p.Published)
	}
	if p.Font != "" {
		mark := "[OK]"
		if !p.FontFound {
			mark = "[ERROR]"
		}
		fmt.Fprintf(w, "  %s Font: %s\n", mark, p.Font)
	}
	if p.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
