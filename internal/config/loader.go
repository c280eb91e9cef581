package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without
	// extension).
	ConfigFileName = "screenmark"

	// EnvPrefix is the prefix for environment variables, e.g.
	// SCREENMARK_EXTRACT_MAX_WORKERS.
	EnvPrefix = "SCREENMARK"
)

// Loader resolves configuration from files, environment variables and bound
// flags, in that precedence order (flags win).
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load resolves the configuration from the default search paths and
// validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile resolves the configuration from an explicit file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// ConfigFileUsed returns the path of the config file that was loaded, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", ConfigFileName))
	}
	l.v.AddConfigPath("/etc/" + ConfigFileName)
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("embed.scheme", defaults.Embed.Scheme)
	l.v.SetDefault("embed.opacity", defaults.Embed.Opacity)
	l.v.SetDefault("embed.luminous", defaults.Embed.Luminous)
	l.v.SetDefault("embed.with_spread", defaults.Embed.WithSpread)
	l.v.SetDefault("embed.spread_strength", defaults.Embed.SpreadStrength)
	l.v.SetDefault("embed.frequency_strength", defaults.Embed.FrequencyStrength)
	l.v.SetDefault("embed.stamp.margin", defaults.Embed.Stamp.Margin)
	l.v.SetDefault("embed.stamp.top_offset", defaults.Embed.Stamp.TopOffset)
	l.v.SetDefault("embed.stamp.module_size", defaults.Embed.Stamp.ModuleSize)

	l.v.SetDefault("extract.confidence_threshold", defaults.Extract.ConfidenceThreshold)
	l.v.SetDefault("extract.screen_detection", defaults.Extract.ScreenDetection)
	l.v.SetDefault("extract.simple_mode", defaults.Extract.SimpleMode)
	l.v.SetDefault("extract.max_workers", defaults.Extract.MaxWorkers)
	l.v.SetDefault("extract.finder_tolerance", defaults.Extract.FinderTolerance)
}

// Dump renders a configuration as YAML, used by `screenmark config show` and
// to generate starter config files.
func Dump(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(out), nil
}

// WriteDefaultConfigFile writes the default configuration as YAML to the
// given path, or screenmark.yaml in the working directory when empty.
func WriteDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	defaults := DefaultConfig()
	out, err := Dump(&defaults)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", filename, err)
	}
	return nil
}

// SearchPaths returns the locations Load consults, for diagnostics.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", ConfigFileName))
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	}
	paths = append(paths, "/etc/"+ConfigFileName)
	return paths
}
