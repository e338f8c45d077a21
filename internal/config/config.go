// Package config handles refmerge configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/refmerge/internal/merge"
	"github.com/sirupsen/logrus"
)

// Config is the effective configuration for the server and the merge command.
type Config struct {
	ListenAddr  string  `yaml:"listen_addr"`
	Mode        string  `yaml:"mode"`                // literal or normalized
	Separator   *string `yaml:"separator,omitempty"` // nil means merge.DefaultSeparator
	MaxUploadMB int64   `yaml:"max_upload_mb"`
	RateLimit   float64 `yaml:"rate_limit"` // merges per second, 0 disables limiting
	RateBurst   int     `yaml:"rate_burst"`
	HistoryDB   string  `yaml:"history_db,omitempty"` // empty disables run history
	SupportURL  string  `yaml:"support_url,omitempty"`
	LogLevel    string  `yaml:"log_level"`  // any logrus level name
	LogFormat   string  `yaml:"log_format"` // text or json
}

const (
	DefaultListenAddr  = "127.0.0.1:8501"
	DefaultMaxUploadMB = 200
	DefaultRateLimit   = 5
	DefaultRateBurst   = 10
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	// MaxUploadMBLimit caps max_upload_mb so the byte count fits in an int64.
	MaxUploadMBLimit = 1 << 20
)

// ValidLogFormats lists the supported log_format values.
var ValidLogFormats = []string{"text", "json"}

var (
	// ErrInvalidUploadLimit is returned when max_upload_mb is not in 1..MaxUploadMBLimit.
	ErrInvalidUploadLimit = errors.New("max_upload_mb out of range")
	// ErrInvalidRate is returned for a negative rate limit or burst.
	ErrInvalidRate = errors.New("rate_limit and rate_burst must not be negative")
)

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		ListenAddr:  DefaultListenAddr,
		Mode:        merge.ModeLiteral.String(),
		MaxUploadMB: DefaultMaxUploadMB,
		RateLimit:   DefaultRateLimit,
		RateBurst:   DefaultRateBurst,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// MergeOptions converts the mode and separator settings into merge options.
func (c *Config) MergeOptions() (merge.Options, error) {
	mode, err := merge.ParseMode(c.Mode)
	if err != nil {
		return merge.Options{}, err
	}
	opts := merge.Options{Mode: mode, Separator: merge.DefaultSeparator}
	if c.Separator != nil {
		opts.Separator = *c.Separator
	}
	return opts, nil
}

// MaxUploadBytes returns the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Validate checks every setting and reports the first problem found.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if _, err := c.MergeOptions(); err != nil {
		return err
	}
	if c.MaxUploadMB <= 0 || c.MaxUploadMB > MaxUploadMBLimit {
		return fmt.Errorf("%w: %d (valid: 1-%d)", ErrInvalidUploadLimit, c.MaxUploadMB, MaxUploadMBLimit)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return ErrInvalidRate
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if err := ValidateLogFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// ValidateLogFormat checks that the format value is valid.
func ValidateLogFormat(format string) error {
	for _, valid := range ValidLogFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log_format: %s (valid: %v)", format, ValidLogFormats)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
