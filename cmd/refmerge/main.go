// Package main provides the refmerge CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/matsen/refmerge/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refmerge",
	Short: "Merge RIS and EndNote reference files without duplicates",
	Long: `refmerge merges uploaded .ris and .enw reference files into one file per
format, dropping files whose contents are already present.

Run it as a web form (refmerge serve) or directly on local files (refmerge merge).
Commands output JSON by default; use --human for readable output.

Configuration is read from $XDG_CONFIG_HOME/refmerge/config.yml, a .env file in
the working directory and REFMERGE_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/refmerge/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log_level (debug, info, warn, error)")
	rootCmd.Version = Version
}

// mustLoadConfig loads the effective configuration, exits on error.
func mustLoadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(config.ExpandPath(configPath), config.EnvFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
	}
	return cfg
}
