package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyPackageManager   = "package_manager"
	KeyCaseInsensitive  = "case_insensitive"
	KeyFilesConcurrency = "files.concurrency"
	KeyLogLevel         = "log_level"
	KeyAssumeYes        = "assume_yes"
)

// Config is the resolved solid configuration.
type Config struct {
	// PackageManager is auto, npm, pnpm, yarn or bun
	PackageManager string `mapstructure:"package_manager"`

	// CaseInsensitive is auto, true or false
	CaseInsensitive string `mapstructure:"case_insensitive"`

	Files FilesConfig `mapstructure:"files"`

	// LogLevel is debug, info, warn or error
	LogLevel string `mapstructure:"log_level"`

	// AssumeYes skips the confirmation prompt
	AssumeYes bool `mapstructure:"assume_yes"`
}

// FilesConfig configures the files phase.
type FilesConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		PackageManager:  "auto",
		CaseInsensitive: "auto",
		Files:           FilesConfig{Concurrency: 4},
		LogLevel:        "warn",
		AssumeYes:       false,
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile, when set, is used instead of the user config file and
	// must exist
	ConfigFile string

	// ProjectRoot, when set, is searched for .solid.yaml
	ProjectRoot string

	// Paths overrides DefaultPaths
	Paths *Paths
}

// NewViper returns a viper instance with solid's defaults and environment
// binding. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeyPackageManager, defaults.PackageManager)
	v.SetDefault(KeyCaseInsensitive, defaults.CaseInsensitive)
	v.SetDefault(KeyFilesConcurrency, defaults.Files.Concurrency)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyAssumeYes, defaults.AssumeYes)

	v.SetEnvPrefix("SOLID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration files into v and returns the resolved Config.
func Load(v *viper.Viper, opts LoadOptions) (*Config, error) {
	v.SetConfigType("yaml")

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		if err := mergeFile(v, opts.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		paths := opts.Paths
		if paths == nil {
			p, err := DefaultPaths()
			if err != nil {
				return nil, err
			}
			paths = p
		}
		if err := mergeOptionalFile(v, paths.Config); err != nil {
			return nil, err
		}
	}

	if opts.ProjectRoot != "" {
		if err := mergeOptionalFile(v, ProjectConfig(opts.ProjectRoot)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

func mergeOptionalFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return mergeFile(v, path)
}

// Validate checks that every setting has an allowed value.
func (c *Config) Validate() error {
	switch c.PackageManager {
	case "auto", "npm", "pnpm", "yarn", "bun":
	default:
		return fmt.Errorf("invalid %s %q (expected auto, npm, pnpm, yarn or bun)", KeyPackageManager, c.PackageManager)
	}

	switch c.CaseInsensitive {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("invalid %s %q (expected auto, true or false)", KeyCaseInsensitive, c.CaseInsensitive)
	}

	if c.Files.Concurrency < 1 {
		return fmt.Errorf("invalid %s %d (must be at least 1)", KeyFilesConcurrency, c.Files.Concurrency)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid %s %q (expected debug, info, warn or error)", KeyLogLevel, c.LogLevel)
	}
	return nil
}
