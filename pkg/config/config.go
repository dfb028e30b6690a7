package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/modoterra/bugreport/pkg/core"
	"github.com/modoterra/bugreport/pkg/logbuf"
	"github.com/modoterra/bugreport/pkg/report"
	"github.com/modoterra/bugreport/pkg/sysinfo"
)

// FileName is the config file looked up in the user config directory.
const FileName = "bugreport.yaml"

// Config represents a bugreport.yaml configuration file.
type Config struct {
	Version int    `yaml:"version" json:"version"`
	App     App    `yaml:"app"     json:"app"`
	Buffer  Buffer `yaml:"buffer"  json:"buffer"`
	Report  Report `yaml:"report"  json:"report"`
}

// App identifies the application and where its reports go.
type App struct {
	Name        string `yaml:"name"                   json:"name"`
	IssuesURL   string `yaml:"issues_url,omitempty"   json:"issues_url,omitempty"`
	ReportEmail string `yaml:"report_email,omitempty" json:"report_email,omitempty"`
}

// Buffer configures the in-memory log buffer.
type Buffer struct {
	Capacity int    `yaml:"capacity"  json:"capacity"`  // 0 means logbuf.DefaultCapacity
	MinLevel string `yaml:"min_level" json:"min_level"` // debug|info|warn|error
	Journal  bool   `yaml:"journal"   json:"journal"`   // tee recorded lines to the systemd journal
}

// Report configures report composition.
type Report struct {
	EscapeKeys     []string `yaml:"escape_keys"     json:"escape_keys"`
	EscapeNewlines bool     `yaml:"escape_newlines" json:"escape_newlines"`
	Repanic        bool     `yaml:"repanic"         json:"repanic"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		App: App{
			Name:        "Application",
			IssuesURL:   report.DefaultIssuesURL,
			ReportEmail: report.DefaultReportEmail,
		},
		Buffer: Buffer{
			Capacity: logbuf.DefaultCapacity,
			MinLevel: "debug",
		},
		Report: Report{
			EscapeKeys:     []string{sysinfo.LineSeparatorKey},
			EscapeNewlines: true,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "bugreport", FileName), nil
}

// Parse decodes YAML on top of Default, so omitted fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Level returns the parsed minimum buffer level.
func (c *Config) Level() (core.Level, error) {
	if c.Buffer.MinLevel == "" {
		return core.LevelDebug, nil
	}
	return core.ParseLevel(c.Buffer.MinLevel)
}

// Contact returns the report contact points.
func (c *Config) Contact() report.Contact {
	return report.Contact{IssuesURL: c.App.IssuesURL, ReportEmail: c.App.ReportEmail}
}

// EscapeFunc returns the property escape predicate.
func (c *Config) EscapeFunc() sysinfo.EscapeFunc {
	return sysinfo.EscapeKeys(c.Report.EscapeKeys, c.Report.EscapeNewlines)
}
