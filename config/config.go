// Package config loads the bot configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendFirebase = "firebase"
)

// FirebaseConfig points at a Realtime Database.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	DatabaseURL     string `yaml:"database_url"`
}

type StoreConfig struct {
	// Backend is one of "memory", "file" or "firebase".
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path"` // file backend only
	Firebase FirebaseConfig `yaml:"firebase"`
}

type Config struct {
	// Listen is the HTTP listen address for the mini-app and submission API.
	Listen string `yaml:"listen"`

	BotToken string `yaml:"bot_token"`
	// WebAppURL is the public URL of the availability mini-app.
	WebAppURL string `yaml:"web_app_url"`
	// IndexPath is the mini-app page served at "/".
	IndexPath string `yaml:"index_path"`

	Store StoreConfig `yaml:"store"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	// DraftSweep is a cron spec for removing drafts older than DraftTTL.
	// Empty disables the sweep.
	DraftSweep string `yaml:"draft_sweep"`
	DraftTTL   string `yaml:"draft_ttl"`

	// TopN is the number of slots listed in text summaries.
	TopN int `yaml:"top_n"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:     ":8000",
		IndexPath:  "index.html",
		Store:      StoreConfig{Backend: BackendMemory, Path: "data/events.json"},
		LogLevel:   "info",
		DraftSweep: "@hourly",
		DraftTTL:   "24h",
		TopN:       5,
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.IndexPath == "" {
		c.IndexPath = def.IndexPath
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = def.Store.Backend
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DraftTTL == "" {
		c.DraftTTL = def.DraftTTL
	}
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendFirebase:
		if c.Store.Firebase.CredentialsFile == "" || c.Store.Firebase.DatabaseURL == "" {
			return errors.New("firebase backend needs credentials_file and database_url")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := c.DraftTTLDuration(); err != nil {
		return err
	}
	return nil
}

// DraftTTLDuration parses DraftTTL.
func (c *Config) DraftTTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.DraftTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid draft_ttl %q: %v", c.DraftTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("draft_ttl must be positive, got %q", c.DraftTTL)
	}
	return d, nil
}

// applyEnv lets the environment override the file. The names match the
// deployment variables the bot has always used.
func (c *Config) applyEnv() {
	if v := firstEnv("TOKEN", "TELEGRAM_BOT_TOKEN"); v != "" {
		c.BotToken = v
	}
	if v := os.Getenv("WEB_APP_URL"); v != "" {
		c.WebAppURL = v
	}
	if v := os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH"); v != "" {
		c.Store.Firebase.CredentialsFile = v
	}
	if v := os.Getenv("FIREBASE_DATABASE_URL"); v != "" {
		c.Store.Firebase.DatabaseURL = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Load reads the YAML file at path, applies environment overrides and
// defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			cfg = &Config{}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config %s: %v", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
