package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/mypeeps/internal/config"
	"github.com/mmynk/mypeeps/pkg/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "mypeeps",
	Short: "mypeeps - a personal catalog of people and groups",
	Long: `mypeeps serves the people and group catalog over Connect RPC.

Settings come from mypeeps.yaml, a .env file and the environment.
Flags override all of them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $MYPEEPS_CONFIG, ./mypeeps.yaml, ~/.config/mypeeps/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(serveCmd, tokenCmd)
}

// loadConfig reads settings and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
