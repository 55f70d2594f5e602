// Package config loads the process configuration of the docsift binary.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults
const (
	DefaultListen        = ":8090"
	DefaultStorageDir    = "~/.docsift/storage"
	DefaultCatalog       = "catalog.toml"
	DefaultSessionSecret = "docsift-dev-session-secret-change-me"
	DefaultLogLevel      = "info"
	DefaultSessionIdle   = 24 * time.Hour

	envPrefix = "DOCSIFT_"
)

// Config holds the process configuration
type Config struct {
	Listen        string        `koanf:"listen"`
	StorageDir    string        `koanf:"storage_dir"`
	Catalog       string        `koanf:"catalog"`
	Watch         bool          `koanf:"watch"`
	SessionSecret string        `koanf:"session_secret"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	SessionIdle   time.Duration `koanf:"session_idle_timeout"`
	AuthToken     string        `koanf:"auth_token"`
	LogLevel      string        `koanf:"log_level"`

	// FileUsed is the config file that was read, if any
	FileUsed string `koanf:"-"`
}

// findConfigFile finds the config file to use.
// Priority: explicit path > docsift.yaml > docsift.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"docsift.yaml", "docsift.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration from defaults, file, environment and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"listen":               DefaultListen,
		"storage_dir":          DefaultStorageDir,
		"catalog":              DefaultCatalog,
		"watch":                true,
		"session_secret":       DefaultSessionSecret,
		"cookie_secure":        false,
		"session_idle_timeout": DefaultSessionIdle.String(),
		"auth_token":           "",
		"log_level":            DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// DOCSIFT_STORAGE_DIR -> storage_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	cfg.StorageDir = expandHome(cfg.StorageDir)

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.SessionIdle <= 0 {
		return nil, fmt.Errorf("invalid session_idle_timeout %s (must be positive)", cfg.SessionIdle)
	}
	return &cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory
		home = "."
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ParseLevel maps a log_level value to a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log_level %q (want debug|info|warn|error)", level)
}

// NewLogger builds the text logger the binary writes to w
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
