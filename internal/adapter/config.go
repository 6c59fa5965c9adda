package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/spf13/viper"
)

const envPrefix = "SHELF"

// View names accepted by ui.default_view
const (
	ViewSearch     = "search"
	ViewFavorites  = "favorites"
	ViewWantToRead = "wantToRead"
	ViewRecent     = "recentlySearched"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds Open Library client configuration
type CatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	CoversURL         string        `mapstructure:"covers_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	PageSize          int           `mapstructure:"page_size"`
	Timeout           time.Duration `mapstructure:"timeout"`             // per search request
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 = unlimited
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Path string `mapstructure:"path"` // directory of shelf.db, empty keeps everything in memory
	Key  string `mapstructure:"key"`  // slot holding the saved collections
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView string `mapstructure:"default_view"`
	CoverSize   string `mapstructure:"cover_size"` // S, M or L
	Browser     string `mapstructure:"browser"`    // empty for system default
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "https://openlibrary.org",
			CoversURL:         "https://covers.openlibrary.org",
			UserAgent:         "Shelf/1.0 (https://github.com/mmcdole/shelf)",
			PageSize:          10,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 3,
		},
		Storage: StorageConfig{
			Path: defaultDataPath(),
			Key:  "libraea_saved_books",
		},
		UI: UIConfig{
			DefaultView: ViewSearch,
			CoverSize:   string(domain.DefaultCoverSize),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "shelf.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelf")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelf")
	}
}

// newViper returns a viper instance seeded with every default, so that
// SHELF_* environment variables can override keys absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("catalog.base_url", def.Catalog.BaseURL)
	v.SetDefault("catalog.covers_url", def.Catalog.CoversURL)
	v.SetDefault("catalog.user_agent", def.Catalog.UserAgent)
	v.SetDefault("catalog.page_size", def.Catalog.PageSize)
	v.SetDefault("catalog.timeout", def.Catalog.Timeout)
	v.SetDefault("catalog.requests_per_second", def.Catalog.RequestsPerSecond)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.key", def.Storage.Key)
	v.SetDefault("ui.default_view", def.UI.DefaultView)
	v.SetDefault("ui.cover_size", def.UI.CoverSize)
	v.SetDefault("ui.browser", def.UI.Browser)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigDir(), ".")
}

// LoadConfigFrom loads config.yaml from the first dir that has one.
// A missing file is not an error.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the stores misbehave
func (c *Config) Validate() error {
	var errs []error
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 100 {
		errs = append(errs, fmt.Errorf("catalog.page_size must be between 1 and 100, got %d", c.Catalog.PageSize))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("catalog.timeout must be positive, got %s", c.Catalog.Timeout))
	}
	if c.Catalog.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("catalog.requests_per_second must not be negative"))
	}
	switch c.UI.DefaultView {
	case ViewSearch, ViewFavorites, ViewWantToRead, ViewRecent:
	default:
		errs = append(errs, fmt.Errorf("ui.default_view %q is not one of %s, %s, %s, %s",
			c.UI.DefaultView, ViewSearch, ViewFavorites, ViewWantToRead, ViewRecent))
	}
	return errors.Join(errs...)
}

// CoverSize returns the configured cover size, falling back to the default
func (c *Config) CoverSize() domain.CoverSize {
	return domain.NormalizeCoverSize(c.UI.CoverSize)
}

// SaveConfig writes cfg to config.yaml in dir
func SaveConfig(cfg *Config, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("catalog.base_url", cfg.Catalog.BaseURL)
	v.Set("catalog.covers_url", cfg.Catalog.CoversURL)
	v.Set("catalog.user_agent", cfg.Catalog.UserAgent)
	v.Set("catalog.page_size", cfg.Catalog.PageSize)
	v.Set("catalog.timeout", cfg.Catalog.Timeout.String())
	v.Set("catalog.requests_per_second", cfg.Catalog.RequestsPerSecond)

	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.key", cfg.Storage.Key)

	v.Set("ui.default_view", cfg.UI.DefaultView)
	v.Set("ui.cover_size", cfg.UI.CoverSize)
	v.Set("ui.browser", cfg.UI.Browser)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}
