package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/screenmark/internal/config"
	"github.com/MeKo-Tech/screenmark/internal/extract"
	"github.com/MeKo-Tech/screenmark/internal/version"
)

// Exit codes. Extraction that finds nothing is a distinct, scriptable
// outcome rather than a generic failure.
const (
	exitOK       = 0
	exitNotFound = 1
	exitError    = 2
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "screenmark",
	Short: "Screen watermarking for leak-source attribution",
	Long: `screenmark embeds an identity payload (who, which device, when) into
screen content and recovers it from captures of that content, including
photos of screens.

Examples:
  screenmark embed wallpaper.png --subject jdoe --out marked.png
  screenmark extract suspicious-capture.jpg
  screenmark config init`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and maps errors onto the exit-code
// contract: 1 when no watermark was found, 2 for anything else.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, extract.ErrDecodeNotFound) {
			os.Exit(exitNotFound)
		}
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

// GetRootCommand exposes the root command so tests can execute subcommands
// without process exits.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/screenmark, /etc/screenmark)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		level := slog.LevelInfo
		if globalConfig.Verbose {
			level = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				level = slog.LevelDebug
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			}
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}

	rootCmd.Version = version.String()
}

func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(exitError)
	}
}

// GetConfig re-unmarshals the resolved configuration so late flag bindings
// are reflected.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the configuration loader, creating it on demand.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
