package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"nofusscal/internal/ics"
)

// SubscriptionConfig describes one read-only calendar feed.
type SubscriptionConfig struct {
	// ID keys the subscription layer and its cache entry.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// CalendarPath is the local calendar file edits are saved to.
	CalendarPath string `yaml:"calendar_path" json:"calendar_path"`

	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// ProductID is written to PRODID when the calendar is saved.
	ProductID string `yaml:"product_id" json:"product_id"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for reloading the
	// calendar file and refreshing subscriptions in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// MilitaryTime renders times as 24h "15:04" instead of "3:04 PM".
	MilitaryTime bool `yaml:"military_time" json:"military_time"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CacheDir keeps the last good body of every subscription.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Subscriptions []SubscriptionConfig `yaml:"subscriptions" json:"subscriptions"`

	// BasicAuth, if set with both fields, protects every endpoint except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultCalendarPath = "./calendar.ics"
	defaultListen       = "127.0.0.1:8080"
	defaultRefreshCron  = "*/15 * * * *"
	defaultCacheDir     = "./cache/subscriptions"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		CalendarPath:  defaultCalendarPath,
		Listen:        defaultListen,
		ProductID:     ics.DefaultProductID,
		RefreshCron:   defaultRefreshCron,
		WeekStart:     "sunday",
		LogLevel:      "info",
		CacheDir:      defaultCacheDir,
		Subscriptions: []SubscriptionConfig{},
	}
}

// Normalize fills in missing values so that partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.CalendarPath == "" {
		c.CalendarPath = defaultCalendarPath
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.ProductID == "" {
		c.ProductID = ics.DefaultProductID
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}

	switch strings.ToLower(c.WeekStart) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = "sunday"
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}

	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Subscriptions == nil {
		c.Subscriptions = []SubscriptionConfig{}
	}
}

// Sources converts the subscriptions to fetch sources. Entries without a URL
// are dropped; a missing ID falls back to the name, then the URL.
func (c *Config) Sources() []ics.Source {
	sources := make([]ics.Source, 0, len(c.Subscriptions))
	for _, s := range c.Subscriptions {
		if s.URL == "" {
			continue
		}
		id := s.ID
		if id == "" {
			if s.Name != "" {
				id = s.Name
			} else {
				id = s.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, URL: s.URL})
	}
	return sources
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file + rename, with 0600
// perms on the result.
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

	tmp, err := os.CreateTemp(dir, ".nofusscal-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
