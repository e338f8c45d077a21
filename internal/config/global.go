package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "refmerge"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvFile is read from the working directory when present.
	EnvFile = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "REFMERGE_"
)

// configCache caches the loaded config.
var configCache *Config

// Path returns the path to the config file.
// REFMERGE_CONFIG wins over $XDG_CONFIG_HOME/refmerge/config.yml.
func Path() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(xdg.ConfigHome, ConfigDir, ConfigFile)
}

// Load loads the configuration from Path, the .env file in the working
// directory and the environment. The result is cached.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	cfg, err := LoadFrom(Path(), EnvFile)
	if err != nil {
		return nil, err
	}

	configCache = cfg
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// LoadFrom builds a config from defaults, the YAML file at path, the dotenv
// file at envFile and the process environment, in increasing precedence.
// Missing files are not an error.
func LoadFrom(path, envFile string) (*Config, error) {
	cfg := Defaults()

	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	dotenv, err := readDotenv(envFile)
	if err != nil {
		return nil, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	cfg.HistoryDB = ExpandPath(cfg.HistoryDB)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return env, nil
}

// applyEnv overrides cfg with every REFMERGE_* variable that lookup finds.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("MODE", &cfg.Mode)
	str("HISTORY_DB", &cfg.HistoryDB)
	str("SUPPORT_URL", &cfg.SupportURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	// An empty separator is meaningful, so presence alone counts.
	if v, ok := lookup(EnvPrefix + "SEPARATOR"); ok {
		sep := Unescape(v)
		cfg.Separator = &sep
	}

	if v, ok := lookup(EnvPrefix + "MAX_UPLOAD_MB"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %sMAX_UPLOAD_MB: %w", EnvPrefix, err)
		}
		cfg.MaxUploadMB = n
	}
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing %sRATE_LIMIT: %w", EnvPrefix, err)
		}
		cfg.RateLimit = f
	}
	if v, ok := lookup(EnvPrefix + "RATE_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %sRATE_BURST: %w", EnvPrefix, err)
		}
		cfg.RateBurst = n
	}
	return nil
}

// Unescape interprets Go escape sequences such as \n in a separator value.
// Values without a backslash, such as a real newline from a quoted .env
// line, and values whose escapes do not parse are returned unchanged.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	out, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return s
	}
	return out
}
