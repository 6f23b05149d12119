// SPDX-License-Identifier: MPL-2.0

// Package config loads launcher defaults from an optional config file and
// environment variables. CLI arguments always win; the config file only
// fills in what the command line leaves unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory and
	// the environment variable prefix.
	AppName = "bounce"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// RuntimeNative runs the entry point as a child process.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs the entry point on the embedded mvdan/sh
	// interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
)

// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not
// recognized.
var ErrInvalidRuntimeMode = errors.New("invalid runtime mode")

type (
	// RuntimeMode selects how the entry point is loaded and run.
	RuntimeMode string

	// Config holds launcher defaults.
	Config struct {
		// Includes is the default comma-separated include pattern list.
		Includes string `mapstructure:"includes"`
		// Excludes is the default comma-separated exclude pattern list.
		Excludes string `mapstructure:"excludes"`
		// Roots are default root directories, used when the command line
		// names none. Entries that do not exist are skipped at startup.
		Roots []string `mapstructure:"roots"`
		// Runtime is the default runtime mode.
		Runtime RuntimeMode `mapstructure:"runtime"`
		// Grace is how long a stop waits before escalating to a kill.
		Grace time.Duration `mapstructure:"grace"`
		// PTY attaches the child process to a pseudo-terminal.
		PTY bool `mapstructure:"pty"`
	}
)

// IsValid reports whether the RuntimeMode is a known value.
func (m RuntimeMode) IsValid() bool {
	return m == RuntimeNative || m == RuntimeVirtual
}

// DefaultConfig returns the built-in defaults, matching the launcher's
// historical behavior: watch compiled classes and config files under the
// conventional build output directories.
func DefaultConfig() *Config {
	return &Config{
		Includes: "**/*.class,**/*.conf,**/*.properties",
		Excludes: "",
		Roots:    []string{"public", "config", filepath.Join("target", "classes")},
		Runtime:  RuntimeNative,
		Grace:    5 * time.Second,
	}
}

// ConfigDir returns the bounce configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the config file and environment. path names an explicit config
// file; when empty, the platform config directory is consulted. A missing
// file is not an error — the defaults apply. Environment variables use the
// BOUNCE_ prefix (e.g. BOUNCE_INCLUDES) and override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("includes", defaults.Includes)
	v.SetDefault("excludes", defaults.Excludes)
	v.SetDefault("roots", defaults.Roots)
	v.SetDefault("runtime", string(defaults.Runtime))
	v.SetDefault("grace", defaults.Grace)
	v.SetDefault("pty", defaults.PTY)

	v.SetEnvPrefix("BOUNCE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(cfgDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			// No config file is fine; defaults apply.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if !cfg.Runtime.IsValid() {
		return nil, fmt.Errorf("%w: %q (want %q or %q)",
			ErrInvalidRuntimeMode, cfg.Runtime, RuntimeNative, RuntimeVirtual)
	}
	if cfg.Grace <= 0 {
		cfg.Grace = defaults.Grace
	}
	return &cfg, nil
}
