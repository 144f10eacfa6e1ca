package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without
	// extension).
	ConfigFileName = "stopscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "STOPSCAN"
)

// Loader handles loading configuration from files, environment variables
// and flag bindings.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the global viper instance so CLI flag
// bindings keep working.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths, applies environment
// overrides and defaults, and validates the result. A missing config
// file is fine; defaults and environment variables carry the day.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The Google key is credentials, not configuration; the well-known
	// variable wins over anything in a file.
	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		cfg.Geocoding.GoogleAPIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// SetConfigFile points the loader at an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "stopscan"))
	}
	l.v.AddConfigPath("/etc/stopscan")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)

	l.v.SetDefault("preprocess.mode", "auto")
	l.v.SetDefault("preprocess.denoise", true)
	l.v.SetDefault("preprocess.enhance_contrast", true)
	l.v.SetDefault("preprocess.sharpen_text", true)
	l.v.SetDefault("preprocess.normalize_size", true)

	l.v.SetDefault("ocr.language", "eng")

	l.v.SetDefault("geocoding.enabled", true)
	l.v.SetDefault("geocoding.region", "")
	l.v.SetDefault("geocoding.limit", 3)
	l.v.SetDefault("geocoding.cache_ttl", 24*time.Hour)
	l.v.SetDefault("geocoding.resolve_delay_ms", 150)

	l.v.SetDefault("output.format", "text")

	l.v.SetDefault("server.host", "0.0.0.0")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.max_upload_mb", 25)
	l.v.SetDefault("server.requests_per_minute", 60)
	l.v.SetDefault("server.timeout_seconds", 120)
}
