package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	appLog "icsagenda/internal/log"
)

// Config is the top-level application configuration. It is constructed once
// per run (defaults -> YAML file -> ICSAGENDA_* environment) and never
// mutated by the pipeline.
type Config struct {
	// URL is the ICS subscription endpoint.
	URL string `koanf:"url" yaml:"url"`

	// OutputPath is where the rendered HTML document is written.
	OutputPath string `koanf:"output" yaml:"output"`

	// Title is the document title and top heading.
	Title string `koanf:"title" yaml:"title"`

	// Pattern is an optional regular expression matched against each
	// event's summary, description and location. Empty means keep all.
	Pattern string `koanf:"pattern" yaml:"pattern"`

	// Invert keeps events that do NOT match Pattern.
	Invert bool `koanf:"invert" yaml:"invert"`

	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool `koanf:"case_sensitive" yaml:"case_sensitive"`

	// Content visibility toggles. Suppressed blocks stay in the document
	// tree but are hidden with CSS, so a reader can re-enable them locally.
	ShowSummary     bool `koanf:"show_summary" yaml:"show_summary"`
	ShowMeta        bool `koanf:"show_meta" yaml:"show_meta"`
	ShowDescription bool `koanf:"show_description" yaml:"show_description"`

	// StrictParse turns a malformed event block into a hard error instead
	// of dropping the block and continuing.
	StrictParse bool `koanf:"strict_parse" yaml:"strict_parse"`

	// Timezone is the IANA display timezone for grouping and headings
	// (e.g. "Europe/Berlin"). Empty means the process-local timezone.
	Timezone string `koanf:"timezone" yaml:"timezone"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `koanf:"listen" yaml:"listen"`

	// RefreshCron is a cron-style schedule for periodic regeneration in
	// serve mode (e.g. "*/30 * * * *").
	RefreshCron string `koanf:"refresh" yaml:"refresh"`

	// CacheDir is the base directory for the ICS fetch cache.
	CacheDir string `koanf:"cache_dir" yaml:"cache_dir"`

	// PNGPath, if set, enables a headless-Chromium PNG snapshot of the
	// rendered document at this path.
	PNGPath string `koanf:"png" yaml:"png"`
}

// DefaultConfig returns the in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputPath:  "./agenda.html",
		Title:       "Agenda",
		ShowSummary: true,
		ShowMeta:    true,
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/30 * * * *",
		CacheDir:    "./var/ics-cache",
	}
}

// Normalize fills in missing values so that partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.OutputPath == "" {
		c.OutputPath = "./agenda.html"
	}
	if c.Title == "" {
		c.Title = "Agenda"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
}

// Location resolves the configured display timezone, falling back to the
// process-local timezone when unset or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from defaults, the YAML file at path (created
// with defaults on first run), and ICSAGENDA_* environment variables, in
// that order of increasing precedence.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(*DefaultConfig(), "koanf"), nil); err != nil {
		return nil, err
	}

	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: write a default config file so the user has
			// something to edit.
			if serr := Save(path, DefaultConfig()); serr != nil {
				appLog.Error("failed to write default config", serr, "path", path)
			} else {
				appLog.Info("wrote default config", "path", path)
			}
		} else {
			return nil, err
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "ICSAGENDA_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "ICSAGENDA_"))
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path as YAML, atomically (temp file +
// rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsagenda-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
