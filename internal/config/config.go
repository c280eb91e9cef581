// Package config defines the application configuration and its loading from
// files, environment variables and flags.
package config

import (
	"fmt"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/enhance"
	"github.com/MeKo-Tech/screenmark/internal/extract"
	"github.com/MeKo-Tech/screenmark/internal/geometry"
)

// Config is the complete screenmark configuration, covering both the embed
// and extract commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`

	Embed   EmbedConfig   `mapstructure:"embed" yaml:"embed"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
}

// EmbedConfig holds the embedding-side settings.
type EmbedConfig struct {
	// Scheme selects the embedding scheme: lsb, regional, spread, frequency,
	// stamp, or hybrid.
	Scheme string `mapstructure:"scheme" yaml:"scheme"`

	// Opacity (1-255) blends stamp modules toward the background.
	Opacity int `mapstructure:"opacity" yaml:"opacity"`

	// Luminous selects the bright stamp palette for dark UI themes.
	Luminous bool `mapstructure:"luminous" yaml:"luminous"`

	// WithSpread adds the spread-spectrum layer to hybrid embedding.
	WithSpread bool `mapstructure:"with_spread" yaml:"with_spread"`

	SpreadStrength    int     `mapstructure:"spread_strength" yaml:"spread_strength"`
	FrequencyStrength float64 `mapstructure:"frequency_strength" yaml:"frequency_strength"`

	Stamp StampConfig `mapstructure:"stamp" yaml:"stamp"`
}

// StampConfig holds the shared stamp placement. Extraction reads the same
// values, so changing them here moves both the embedder and the decoder.
type StampConfig struct {
	Margin     int `mapstructure:"margin" yaml:"margin"`
	TopOffset  int `mapstructure:"top_offset" yaml:"top_offset"`
	ModuleSize int `mapstructure:"module_size" yaml:"module_size"`
}

// ExtractConfig holds the extraction-side settings.
type ExtractConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	ScreenDetection     bool    `mapstructure:"screen_detection" yaml:"screen_detection"`
	SimpleMode          bool    `mapstructure:"simple_mode" yaml:"simple_mode"`
	MaxWorkers          int     `mapstructure:"max_workers" yaml:"max_workers"`
	FinderTolerance     float64 `mapstructure:"finder_tolerance" yaml:"finder_tolerance"`
}

// DefaultConfig returns the defaults for every setting.
func DefaultConfig() Config {
	placement := embed.DefaultStampPlacement()
	ex := extract.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Embed: EmbedConfig{
			Scheme:            "hybrid",
			Opacity:           255,
			Luminous:          false,
			WithSpread:        false,
			SpreadStrength:    embed.DefaultSpreadConfig().Strength,
			FrequencyStrength: embed.DefaultFrequencyConfig().Strength,
			Stamp: StampConfig{
				Margin:     placement.Margin,
				TopOffset:  placement.TopOffset,
				ModuleSize: placement.ModuleSize,
			},
		},
		Extract: ExtractConfig{
			ConfidenceThreshold: ex.ConfidenceThreshold,
			ScreenDetection:     ex.ScreenDetection,
			SimpleMode:          ex.SimpleMode,
			MaxWorkers:          ex.MaxWorkers,
			FinderTolerance:     ex.FinderTolerance,
		},
	}
}

// Validate checks enum values and numeric ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch c.Embed.Scheme {
	case "lsb", "regional", "spread", "frequency", "stamp", "hybrid":
	default:
		return fmt.Errorf("invalid embed.scheme %q", c.Embed.Scheme)
	}
	if c.Embed.Opacity < 1 || c.Embed.Opacity > 255 {
		return fmt.Errorf("embed.opacity %d out of range 1-255", c.Embed.Opacity)
	}
	if c.Embed.SpreadStrength < 1 || c.Embed.SpreadStrength > 32 {
		return fmt.Errorf("embed.spread_strength %d out of range 1-32", c.Embed.SpreadStrength)
	}
	if c.Embed.FrequencyStrength <= 0 {
		return fmt.Errorf("embed.frequency_strength must be positive")
	}
	if c.Embed.Stamp.ModuleSize < 1 {
		return fmt.Errorf("embed.stamp.module_size must be at least 1")
	}
	if c.Embed.Stamp.Margin < 0 || c.Embed.Stamp.TopOffset < 0 {
		return fmt.Errorf("embed.stamp offsets must be non-negative")
	}
	if c.Extract.ConfidenceThreshold <= 0 || c.Extract.ConfidenceThreshold > 1 {
		return fmt.Errorf("extract.confidence_threshold %g out of range (0,1]", c.Extract.ConfidenceThreshold)
	}
	if c.Extract.FinderTolerance <= 0 || c.Extract.FinderTolerance > 1 {
		return fmt.Errorf("extract.finder_tolerance %g out of range (0,1]", c.Extract.FinderTolerance)
	}
	if c.Extract.MaxWorkers < 0 {
		return fmt.Errorf("extract.max_workers must be non-negative")
	}
	return nil
}

// Placement converts the stamp settings into the shared placement value.
func (c *Config) Placement() embed.StampPlacement {
	p := embed.DefaultStampPlacement()
	p.Margin = c.Embed.Stamp.Margin
	p.TopOffset = c.Embed.Stamp.TopOffset
	p.ModuleSize = c.Embed.Stamp.ModuleSize
	return p
}

// ToEmbedConfig builds the embedding engine configuration.
func (c *Config) ToEmbedConfig() embed.Config {
	cfg := embed.DefaultConfig()
	cfg.Opacity = uint8(c.Embed.Opacity)
	cfg.Luminous = c.Embed.Luminous
	cfg.WithSpread = c.Embed.WithSpread
	cfg.Spread.Strength = c.Embed.SpreadStrength
	cfg.Frequency.Strength = c.Embed.FrequencyStrength
	cfg.Stamp.Placement = c.Placement()
	return cfg
}

// ToExtractConfig builds the extraction engine configuration.
func (c *Config) ToExtractConfig() extract.Config {
	cfg := extract.DefaultConfig()
	cfg.ConfidenceThreshold = c.Extract.ConfidenceThreshold
	cfg.ScreenDetection = c.Extract.ScreenDetection
	cfg.SimpleMode = c.Extract.SimpleMode
	cfg.MaxWorkers = c.Extract.MaxWorkers
	cfg.FinderTolerance = c.Extract.FinderTolerance
	cfg.Placement = c.Placement()
	cfg.Enhance = enhance.DefaultConfig()
	cfg.Geometry = geometry.DefaultConfig()
	cfg.Spread.Strength = c.Embed.SpreadStrength
	cfg.Frequency.Strength = c.Embed.FrequencyStrength
	return cfg
}
