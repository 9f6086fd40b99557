// Package config loads the workbook configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
)

// AppName names the config directory and the default config file.
const AppName = "workbook"

// Environment variables overriding the file.
const (
	EnvDatabase = "WORKBOOK_DB"
	EnvOutput   = "WORKBOOK_OUTPUT"
	EnvFont     = "WORKBOOK_FONT"
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxTitleLength    = 200
	MaxDateLength     = 60
	MaxPageSizeLength = 10
)

// Config holds all configuration of the workbook tool.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Font     FontConfig     `yaml:"font"`
	Page     PageConfig     `yaml:"page"`
	Cover    CoverConfig    `yaml:"cover"`
	Images   ImagesConfig   `yaml:"images"`
	Assets   AssetsConfig   `yaml:"assets"`
	Browser  BrowserConfig  `yaml:"browser"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the SQLite question bank.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig defines the published artifact.
type OutputConfig struct {
	Path     string `yaml:"path"`
	KeepHTML bool   `yaml:"keepHTML"` // leave the rendered HTML next to the PDF
}

// FontConfig defines the CJK font embedded in the document. The font file
// is required.
type FontConfig struct {
	Path   string `yaml:"path"`
	Family string `yaml:"family"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size   string  `yaml:"size"`   // "a4", "letter", "legal"
	Margin float64 `yaml:"margin"` // inches, all sides
}

// CoverConfig defines the cover page texts.
type CoverConfig struct {
	Title     string `yaml:"title"`
	Subtitle  string `yaml:"subtitle"`
	Date      string `yaml:"date"`      // "auto", "auto:FORMAT", a literal or empty
	DateLabel string `yaml:"dateLabel"` // printed before the date
}

// ImagesConfig defines how record image references are resolved.
type ImagesConfig struct {
	BaseDir  string `yaml:"baseDir"`  // relative references resolve here
	Dir      string `yaml:"dir"`      // where duplicated images are stored
	MaxWidth int    `yaml:"maxWidth"` // CSS pixels
}

// AssetsConfig points at a directory overriding the built-in stylesheet or
// template.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"`
}

// BrowserConfig defines headless Chrome settings.
type BrowserConfig struct {
	Timeout string `yaml:"timeout"` // Go duration
}

// TimeoutDuration returns the parsed timeout, or 0 when unset.
func (b BrowserConfig) TimeoutDuration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: browser.timeout: %v", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: browser.timeout must be positive, got %s", ErrInvalidConfig, b.Timeout)
	}
	return d, nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "questions.db"},
		Output:   OutputConfig{Path: "Open-CS-408习题册.pdf"},
		Font:     FontConfig{Path: filepath.Join("fonts", "NotoSansSC-Regular.ttf"), Family: "Noto Sans SC"},
		Page:     PageConfig{Size: "a4", Margin: 1},
		Cover: CoverConfig{
			Title:     "Open-CS-408",
			Subtitle:  "习题册",
			Date:      "auto:cn",
			DateLabel: "生成时间：",
		},
		Images:  ImagesConfig{BaseDir: ".", Dir: filepath.Join("assets", "images"), MaxWidth: 602},
		Browser: BrowserConfig{Timeout: "2m"},
		Logging: LoggingConfig{
			ConsoleLogger: LoggerConfig{Level: "normal"},
			FileLogger:    LoggerConfig{Level: "none", Destination: AppName + ".log", Mode: "overwrite"},
		},
	}
}

// Validate checks enumerations and field lengths.
func (c *Config) Validate() error {
	fields := []struct {
		name, value string
		max         int
	}{
		{"database.path", c.Database.Path, MaxPathLength},
		{"output.path", c.Output.Path, MaxPathLength},
		{"font.path", c.Font.Path, MaxPathLength},
		{"font.family", c.Font.Family, MaxTitleLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"cover.title", c.Cover.Title, MaxTitleLength},
		{"cover.subtitle", c.Cover.Subtitle, MaxTitleLength},
		{"cover.date", c.Cover.Date, MaxDateLength},
		{"cover.dateLabel", c.Cover.DateLabel, MaxTitleLength},
		{"images.baseDir", c.Images.BaseDir, MaxPathLength},
		{"images.dir", c.Images.Dir, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"logging.file.destination", c.Logging.FileLogger.Destination, MaxPathLength},
	}
	for _, f := range fields {
		if len(f.value) > f.max {
			return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, f.name, len(f.value), f.max)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output.path is required", ErrInvalidConfig)
	}
	if !strings.EqualFold(filepath.Ext(c.Output.Path), ".pdf") {
		return fmt.Errorf("%w: output.path must end in .pdf, got %q", ErrInvalidConfig, c.Output.Path)
	}
	if c.Images.MaxWidth < 0 {
		return fmt.Errorf("%w: images.maxWidth must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Browser.TimeoutDuration(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// ApplyEnv overrides paths from the environment. getenv is os.Getenv in
// production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := getenv(EnvOutput); v != "" {
		c.Output.Path = v
	}
	if v := getenv(EnvFont); v != "" {
		c.Font.Path = v
	}
}

// SearchPaths returns the implicit config locations in lookup order.
func SearchPaths() []string {
	paths := []string{AppName + ".yaml", AppName + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, AppName, AppName+".yaml"),
			filepath.Join(dir, AppName, AppName+".yml"))
	}
	return paths
}

// Load reads the config at path. An empty path searches SearchPaths and
// falls back to DefaultConfig when none exists. An explicit path that does
// not exist is ErrConfigNotFound. The returned path is the file used, empty
// for defaults. Values absent from the file keep their defaults.
func Load(path string) (*Config, string, error) {
	if path == "" {
		for _, p := range SearchPaths() {
			if fileutil.FileExists(p) {
				path = p
				break
			}
		}
		if path == "" {
			return DefaultConfig(), "", nil
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, path, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, path, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, path, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
