// Package config loads pageconv settings from a YAML file and the environment.
// Command line flags override both; the values here only become flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/pageconv/convert"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "PAGECONV_"

// LogLevels are the accepted log.level values, in the spelling the
// --log-level flag uses
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Config holds all user-tunable settings
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Rar     RarConfig     `yaml:"rar"`
	Verify  VerifyConfig  `yaml:"verify"`
	Log     LogConfig     `yaml:"log"`
}

// ConvertConfig holds batch defaults
type ConvertConfig struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Recursive bool   `yaml:"recursive"`
	Open      bool   `yaml:"open"`
	NoTUI     bool   `yaml:"no_tui"`
}

// RarConfig holds the external packer used for cbr output
type RarConfig struct {
	Path string `yaml:"path"`
	Args string `yaml:"args"`
}

// VerifyConfig holds perceptual comparison settings
type VerifyConfig struct {
	Threshold int `yaml:"threshold"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // logrus level name
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			From: string(convert.FormatPDF),
			To:   string(convert.FormatCBZ),
		},
		Rar: RarConfig{
			Path: "rar",
			Args: convert.DefaultRarArgs,
		},
		Verify: VerifyConfig{
			Threshold: convert.DefaultVerifyThreshold,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pageconv/config.yaml or the
// platform equivalent
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pageconv", "config.yaml")
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	setString("FROM", &cfg.Convert.From)
	setString("TO", &cfg.Convert.To)
	setString("RAR_PATH", &cfg.Rar.Path)
	setString("RAR_ARGS", &cfg.Rar.Args)

	// LOG_LEVEL without prefix is honoured as well
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	setString("LOG_LEVEL", &cfg.Log.Level)

	if err := setBool("RECURSIVE", &cfg.Convert.Recursive); err != nil {
		return err
	}
	if err := setBool("OPEN", &cfg.Convert.Open); err != nil {
		return err
	}
	if err := setBool("NO_TUI", &cfg.Convert.NoTUI); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(EnvPrefix + "VERIFY_THRESHOLD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sVERIFY_THRESHOLD: %w", EnvPrefix, err)
		}
		cfg.Verify.Threshold = n
	}
	return nil
}

// Validate checks that every value can be used as a flag default
func (c *Config) Validate() error {
	for _, f := range []string{c.Convert.From, c.Convert.To} {
		if _, err := convert.ParseFormat(f); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Rar.Path) == "" {
		return errors.New("rar.path must not be empty")
	}
	if c.Verify.Threshold < 0 {
		return fmt.Errorf("verify.threshold must not be negative, got %d", c.Verify.Threshold)
	}
	if !slices.Contains(LogLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(LogLevels, ", "), c.Log.Level)
	}
	return nil
}

// normalize trims and lowercases the enum-like values and folds logrus
// aliases such as "warning" onto the flag spelling
func (c *Config) normalize() {
	c.Convert.From = strings.ToLower(strings.TrimSpace(c.Convert.From))
	c.Convert.To = strings.ToLower(strings.TrimSpace(c.Convert.To))

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if lvl, err := logrus.ParseLevel(level); err == nil {
		level = lvl.String()
		if lvl == logrus.WarnLevel {
			level = "warn"
		}
	}
	c.Log.Level = level
}

// Vars exposes the configuration as kong interpolation variables
func (c *Config) Vars() kong.Vars {
	return kong.Vars{
		"config_from":      strings.ToLower(strings.TrimSpace(c.Convert.From)),
		"config_to":        strings.ToLower(strings.TrimSpace(c.Convert.To)),
		"config_recursive": strconv.FormatBool(c.Convert.Recursive),
		"config_open":      strconv.FormatBool(c.Convert.Open),
		"config_no_tui":    strconv.FormatBool(c.Convert.NoTUI),
		"config_rar_path":  c.Rar.Path,
		"config_rar_args":  c.Rar.Args,
		"config_threshold": strconv.Itoa(c.Verify.Threshold),
		"config_log_level": c.Log.Level,
		"log_levels":       strings.Join(LogLevels, ","),
	}
}
