package main

import (
	"fmt"

	"github.com/matsen/refmerge/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after the config file, .env and
REFMERGE_* environment variables have been applied.

Keys:
  listen_addr    Address the web form listens on
  mode           literal (exact text) or normalized (trimmed, lowercased)
  separator      Text placed between merged entries (default newline)
  max_upload_mb  Request size limit for uploads
  rate_limit     Merges per second across all clients (0 disables)
  rate_burst     Merges allowed in a burst
  history_db     SQLite file for run history (empty disables)
  support_url    Link shown in the support panel
  log_level      debug, info, warn, error
  log_format     text or json`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for refmerge config.
type ConfigResponse struct {
	Path        string  `json:"path"`
	ListenAddr  string  `json:"listen_addr"`
	Mode        string  `json:"mode"`
	Separator   string  `json:"separator"`
	MaxUploadMB int64   `json:"max_upload_mb"`
	RateLimit   float64 `json:"rate_limit"`
	RateBurst   int     `json:"rate_burst"`
	HistoryDB   string  `json:"history_db,omitempty"`
	SupportURL  string  `json:"support_url,omitempty"`
	LogLevel    string  `json:"log_level"`
	LogFormat   string  `json:"log_format"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	opts, err := cfg.MergeOptions()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	path := config.Path()
	if configPath != "" {
		path = config.ExpandPath(configPath)
	}

	resp := ConfigResponse{
		Path:        path,
		ListenAddr:  cfg.ListenAddr,
		Mode:        opts.Mode.String(),
		Separator:   opts.Separator,
		MaxUploadMB: cfg.MaxUploadMB,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		HistoryDB:   cfg.HistoryDB,
		SupportURL:  cfg.SupportURL,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
	}

	if humanOutput {
		fmt.Printf("config:        %s\n", resp.Path)
		fmt.Printf("listen_addr:   %s\n", resp.ListenAddr)
		fmt.Printf("mode:          %s\n", resp.Mode)
		fmt.Printf("separator:     %q\n", resp.Separator)
		fmt.Printf("max_upload_mb: %d\n", resp.MaxUploadMB)
		fmt.Printf("rate_limit:    %g/s (burst %d)\n", resp.RateLimit, resp.RateBurst)
		fmt.Printf("history_db:    %s\n", resp.HistoryDB)
		fmt.Printf("support_url:   %s\n", resp.SupportURL)
		fmt.Printf("log:           %s (%s)\n", resp.LogLevel, resp.LogFormat)
		return nil
	}
	return outputJSON(resp)
}
