package config

import (
	"fmt"
	"time"

	"github.com/haulware/stopscan/internal/preprocess"
)

// Config is the complete configuration for the stopscan application,
// loadable from config files, environment variables and CLI flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Geocoding  GeocodingConfig  `mapstructure:"geocoding" yaml:"geocoding" json:"geocoding"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
}

// PreprocessConfig mirrors preprocess.Options.
type PreprocessConfig struct {
	Mode            string `mapstructure:"mode" yaml:"mode" json:"mode"`
	Denoise         bool   `mapstructure:"denoise" yaml:"denoise" json:"denoise"`
	EnhanceContrast bool   `mapstructure:"enhance_contrast" yaml:"enhance_contrast" json:"enhance_contrast"`
	SharpenText     bool   `mapstructure:"sharpen_text" yaml:"sharpen_text" json:"sharpen_text"`
	NormalizeSize   bool   `mapstructure:"normalize_size" yaml:"normalize_size" json:"normalize_size"`
}

// OCRConfig contains recognition engine settings.
type OCRConfig struct {
	Language string `mapstructure:"language" yaml:"language" json:"language"`
}

// GeocodingConfig contains resolver settings. The Google API key usually
// arrives via the GOOGLE_MAPS_API_KEY environment variable or a .env
// file rather than a config file.
type GeocodingConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	GoogleAPIKey   string        `mapstructure:"google_api_key" yaml:"google_api_key" json:"-"`
	Region         string        `mapstructure:"region" yaml:"region" json:"region"`
	Limit          int           `mapstructure:"limit" yaml:"limit" json:"limit"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"`
	ResolveDelayMS int           `mapstructure:"resolve_delay_ms" yaml:"resolve_delay_ms" json:"resolve_delay_ms"`
}

// OutputConfig controls CLI output rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Host              string `mapstructure:"host" yaml:"host" json:"host"`
	Port              int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB       int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := preprocess.ParseMode(c.Preprocess.Mode); err != nil {
		return err
	}
	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Geocoding.Limit < 0 {
		return fmt.Errorf("config: geocoding limit must be non-negative")
	}
	return nil
}

// PreprocessOptions converts the config into preprocess.Options. The
// mode must have been validated beforehand.
func (c *Config) PreprocessOptions() preprocess.Options {
	mode, _ := preprocess.ParseMode(c.Preprocess.Mode)
	return preprocess.Options{
		Mode:            mode,
		Denoise:         c.Preprocess.Denoise,
		EnhanceContrast: c.Preprocess.EnhanceContrast,
		SharpenText:     c.Preprocess.SharpenText,
		NormalizeSize:   c.Preprocess.NormalizeSize,
	}
}

// ResolveDelay returns the inter-name geocoding delay as a duration.
func (c *Config) ResolveDelay() time.Duration {
	return time.Duration(c.Geocoding.ResolveDelayMS) * time.Millisecond
}
