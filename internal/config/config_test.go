package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/refmerge/internal/merge"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() error = %v", err)
	}

	opts, err := cfg.MergeOptions()
	if err != nil {
		t.Fatalf("MergeOptions() error = %v", err)
	}
	if opts.Mode != merge.ModeLiteral {
		t.Errorf("Mode = %v, want literal", opts.Mode)
	}
	if opts.Separator != merge.DefaultSeparator {
		t.Errorf("Separator = %q, want %q", opts.Separator, merge.DefaultSeparator)
	}
	if got := cfg.MaxUploadBytes(); got != 200<<20 {
		t.Errorf("MaxUploadBytes() = %d", got)
	}
}

func TestConfig_MergeOptionsEmptySeparator(t *testing.T) {
	empty := ""
	cfg := Defaults()
	cfg.Mode = "normalized"
	cfg.Separator = &empty

	opts, err := cfg.MergeOptions()
	if err != nil {
		t.Fatalf("MergeOptions() error = %v", err)
	}
	if opts.Mode != merge.ModeNormalized || opts.Separator != "" {
		t.Errorf("MergeOptions() = %+v, want normalized with empty separator", opts)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"unknown mode", func(c *Config) { c.Mode = "fuzzy" }, merge.ErrUnknownMode},
		{"zero upload", func(c *Config) { c.MaxUploadMB = 0 }, ErrInvalidUploadLimit},
		{"huge upload", func(c *Config) { c.MaxUploadMB = 1 << 50 }, ErrInvalidUploadLimit},
		{"largest upload", func(c *Config) { c.MaxUploadMB = MaxUploadMBLimit }, nil},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, ErrInvalidRate},
		{"negative burst", func(c *Config) { c.RateBurst = -1 }, ErrInvalidRate},
		{"rate disabled", func(c *Config) { c.RateLimit = 0 }, nil},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_MaxUploadBytesAtLimit(t *testing.T) {
	cfg := Defaults()
	cfg.MaxUploadMB = MaxUploadMBLimit
	if got := cfg.MaxUploadBytes(); got != 1<<40 {
		t.Errorf("MaxUploadBytes() = %d, want %d", got, int64(1)<<40)
	}
}

func TestLoadFrom_HugeUploadLimit(t *testing.T) {
	t.Setenv("REFMERGE_MAX_UPLOAD_MB", "9223372036854775807")
	_, err := LoadFrom("", "")
	if !errors.Is(err, ErrInvalidUploadLimit) {
		t.Errorf("LoadFrom() error = %v, want ErrInvalidUploadLimit", err)
	}
}

func TestConfig_ValidateLogFormat(t *testing.T) {
	cfg := Defaults()
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject log_format xml")
	}
	cfg.LogFormat = "json"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_ValidateLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject log_level chatty")
	}
}

func TestConfig_ValidateEmptyListenAddr(t *testing.T) {
	cfg := Defaults()
	cfg.ListenAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an empty listen_addr")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~/history.db", filepath.Join(home, "history.db")},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
