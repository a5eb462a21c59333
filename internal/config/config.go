package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lachiem1/cyclecal/internal/calendar"
	appLog "github.com/lachiem1/cyclecal/internal/log"
)

const (
	envConfigPath = "CYCLECAL_CONFIG"

	defaultAPIBaseURL     = "https://api.cyclecal.app"
	defaultWeekStart      = "sunday"
	defaultLayout         = "wide"
	defaultPollSeconds    = 120
	defaultStaleSeconds   = 300
	defaultBackoffSeconds = 30
	defaultLogLevel       = "info"
)

// Config is the on-disk application configuration. Per-device UI state
// (last granularity, layout toggles) lives in the local database instead.
type Config struct {
	// APIBaseURL is the record store's REST endpoint.
	APIBaseURL string `yaml:"api_base_url"`

	// UserID scopes every record query.
	UserID string `yaml:"user_id"`

	// Timezone is the IANA zone used to compute DateKeys. Empty means the
	// machine's local zone.
	Timezone string `yaml:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start"`

	// Layout is "wide" (month grid) or "compact" (week strip + carousel).
	Layout string `yaml:"layout"`

	// DefaultGranularity overrides the layout's default view on first launch.
	DefaultGranularity string `yaml:"default_granularity,omitempty"`

	PollSeconds    int    `yaml:"poll_seconds"`
	StaleSeconds   int    `yaml:"stale_seconds"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
	LogLevel       string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:     defaultAPIBaseURL,
		WeekStart:      defaultWeekStart,
		Layout:         defaultLayout,
		PollSeconds:    defaultPollSeconds,
		StaleSeconds:   defaultStaleSeconds,
		BackoffSeconds: defaultBackoffSeconds,
		LogLevel:       defaultLogLevel,
	}
}

// Normalize fills zero values with defaults and replaces values that would
// otherwise fail later.
func (c *Config) Normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.UserID = strings.TrimSpace(c.UserID)
	c.Timezone = strings.TrimSpace(c.Timezone)

	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = defaultWeekStart
	}
	if _, err := calendar.ParseLayout(c.Layout); err != nil {
		c.Layout = defaultLayout
	}
	if c.DefaultGranularity != "" {
		if _, err := calendar.ParseGranularity(c.DefaultGranularity); err != nil {
			c.DefaultGranularity = ""
		}
	}
	if c.PollSeconds <= 0 {
		c.PollSeconds = defaultPollSeconds
	}
	if c.StaleSeconds <= 0 {
		c.StaleSeconds = defaultStaleSeconds
	}
	if c.BackoffSeconds <= 0 {
		c.BackoffSeconds = defaultBackoffSeconds
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone, falling back to the local zone.
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

func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func (c *Config) CalendarLayout() calendar.Layout {
	l, err := calendar.ParseLayout(c.Layout)
	if err != nil {
		return calendar.LayoutWide
	}
	return l
}

// Granularity is DefaultGranularity if set, else the layout's default.
func (c *Config) Granularity() calendar.Granularity {
	if c.DefaultGranularity != "" {
		if g, err := calendar.ParseGranularity(c.DefaultGranularity); err == nil {
			return g
		}
	}
	return c.CalendarLayout().DefaultGranularity()
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

func (c *Config) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// DefaultPath is $CYCLECAL_CONFIG or <user config dir>/cyclecal/config.yaml.
func DefaultPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(envConfigPath)); override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "cyclecal", "config.yaml"), nil
}

// Load reads the YAML config at path. On first run the file does not exist
// yet; defaults are written there with 0600 and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
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
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cyclecal-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
