package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haulware/stopscan/internal/config"
	"github.com/haulware/stopscan/internal/version"
)

var (
	// Global configuration, loaded once per invocation.
	globalConfig *config.Config
	// Configuration file path from --config.
	cfgFile string
)

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "stopscan",
	Short: "Extract delivery stops from photographed or scanned lists",
	Long: `stopscan turns a photographed or scanned list of delivery stops into
validated (name, latitude, longitude, confidence) records.

The pipeline preprocesses the image (denoise, contrast stretch, adaptive
thresholding, morphological cleanup), runs OCR, extracts embedded
coordinates or place names, and resolves names through a geocoding
provider chain with caching and fuzzy fallback.

Examples:
  stopscan extract sheet.jpg
  stopscan extract sheet.jpg --mode handwritten --format json
  stopscan geocode "Mumbai, Maharashtra" "Pune"
  stopscan serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.PersistentFlags().GetBool("version"); v {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "stopscan version %s\n", version.Version)
			_, _ = fmt.Fprintf(out, "Commit: %s\n", version.Commit)
			_, _ = fmt.Fprintf(out, "Date: %s\n", version.Date)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/stopscan, /etc/stopscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads .env credentials and the layered configuration.
func initConfig() {
	// Provider API keys commonly live in a .env next to the binary; a
	// missing file is not an error.
	_ = godotenv.Load()

	loader := config.NewLoader()
	loader.SetConfigFile(cfgFile)

	cfg, err := loader.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	globalConfig = cfg

	setupLogging(cfg)
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// getConfig returns the loaded configuration, loading it on demand for
// tests that bypass cobra's initializers.
func getConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	return globalConfig
}
