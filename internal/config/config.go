package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgREST = "postgrest"
	DriverBolt      = "bolt"
)

// ErrInvalidBackend is returned by Validate for an unusable backend section.
var ErrInvalidBackend = errors.New("invalid backend configuration")

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`
	Keys    KeyConfig     `mapstructure:"keys"`
}

type BackendConfig struct {
	Driver     string        `mapstructure:"driver"`
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	UserID     string        `mapstructure:"user_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	AllowLocal bool          `mapstructure:"allow_local"`
	Path       string        `mapstructure:"path"`
}

type FeedConfig struct {
	// Collections overrides the backend view per kind, e.g. forum = "forum_posts_feed".
	Collections   map[string]string `mapstructure:"collections"`
	FetchTimeout  time.Duration     `mapstructure:"fetch_timeout"`
	MaxConcurrent int               `mapstructure:"max_concurrent"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Card   CardConfig   `mapstructure:"card"`
	Detail DetailConfig `mapstructure:"detail"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Muted     string `mapstructure:"muted"`
	Liked     string `mapstructure:"liked"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type CardConfig struct {
	MaxBodyLength int `mapstructure:"max_body_length"`
}

type DetailConfig struct {
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Refresh  string `mapstructure:"refresh"`
	Like     string `mapstructure:"like"`
	NextKind string `mapstructure:"next_kind"`
	PrevKind string `mapstructure:"prev_kind"`
	Open     string `mapstructure:"open"`
	Back     string `mapstructure:"back"`
	Help     string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Backend: BackendConfig{
			Driver:     DriverPostgREST,
			URL:        "",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			Path:       filepath.Join(homeDir, ".corkboard", "board.db"),
		},
		Feed: FeedConfig{
			Collections:   map[string]string{},
			FetchTimeout:  30 * time.Second,
			MaxConcurrent: 5,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".corkboard", "corkboard.log"),
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Muted:     "#94A3B8",
				Liked:     "#FFE66D",
				Error:     "#EF4444",
				Success:   "#10B981",
			},
			Card: CardConfig{
				MaxBodyLength: 120,
			},
			Detail: DetailConfig{
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:     "q",
				Refresh:  "r",
				Like:     "l",
				NextKind: "tab",
				PrevKind: "shift+tab",
				Open:     "enter",
				Back:     "esc",
				Help:     "?",
			},
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("metrics", cfg.Metrics)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "corkboard")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CORKBOARD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decode over the defaults so a partial section in the file keeps the
	// remaining default fields.
	config := defaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnv(config)
	// Expand paths after loading
	expandPaths(config)

	return config, nil
}

// Section defaults are structs, so viper's AutomaticEnv never sees the
// nested keys. The values most often kept out of config files are read here.
var envOverrides = map[string]func(*Config, string){
	"CORKBOARD_BACKEND_URL":    func(c *Config, v string) { c.Backend.URL = v },
	"CORKBOARD_BACKEND_DRIVER": func(c *Config, v string) { c.Backend.Driver = v },
	"CORKBOARD_API_KEY":        func(c *Config, v string) { c.Backend.APIKey = v },
	"CORKBOARD_USER_ID":        func(c *Config, v string) { c.Backend.UserID = v },
	"CORKBOARD_LOG_LEVEL":      func(c *Config, v string) { c.Log.Level = v },
	"CORKBOARD_METRICS_LISTEN": func(c *Config, v string) { c.Metrics.Listen = v },
}

func applyEnv(cfg *Config) {
	for name, set := range envOverrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			set(cfg, v)
		}
	}
}

// Validate checks that the selected backend can be constructed.
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case DriverPostgREST:
		if c.Backend.URL == "" {
			return fmt.Errorf("%w: backend.url is required for the %s driver", ErrInvalidBackend, DriverPostgREST)
		}
	case DriverBolt:
		if c.Backend.Path == "" {
			return fmt.Errorf("%w: backend.path is required for the %s driver", ErrInvalidBackend, DriverBolt)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidBackend, c.Backend.Driver)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Backend.Path = expandPath(cfg.Backend.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	backendCfg := map[string]interface{}{
		"driver":      config.Backend.Driver,
		"url":         config.Backend.URL,
		"api_key":     config.Backend.APIKey,
		"user_id":     config.Backend.UserID,
		"timeout":     config.Backend.Timeout.String(),
		"max_retries": config.Backend.MaxRetries,
		"allow_local": config.Backend.AllowLocal,
		"path":        config.Backend.Path,
	}

	feedCfg := map[string]interface{}{
		"collections":    config.Feed.Collections,
		"fetch_timeout":  config.Feed.FetchTimeout.String(),
		"max_concurrent": config.Feed.MaxConcurrent,
	}

	v.Set("backend", backendCfg)
	v.Set("feed", feedCfg)
	v.Set("log", map[string]interface{}{"level": config.Log.Level, "file": config.Log.File})
	v.Set("metrics", map[string]interface{}{"listen": config.Metrics.Listen})
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
