// Package config loads user settings from a TOML file and CLEANML_
// environment variables, and locates the CleanerML definition directories.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
	"github.com/lakshaymaurya-felt/cleanml/pkg/whitelist"
)

// EnvPrefix prefixes environment overrides, e.g. CLEANML_CLEANERS_DIR.
const EnvPrefix = "CLEANML_"

// Config holds the user settings.
type Config struct {
	CustomPaths []cleaner.CustomPath `koanf:"custom_paths"`
	ShredDrives []string             `koanf:"shred_drives"`
	Whitelist   []string             `koanf:"whitelist"`

	// CleanersDir is an extra personal CleanerML directory searched first.
	CleanersDir string `koanf:"cleaners_dir"`

	// AutoHide hides cleaners with nothing to clean from listings.
	AutoHide bool `koanf:"auto_hide"`

	// DeepScanWorkers bounds the directories read in parallel.
	DeepScanWorkers int `koanf:"deep_scan_workers"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{AutoHide: true, DeepScanWorkers: 4}
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, logging.AppName, "config.toml")
}

// Load reads path, or DefaultPath when path is empty, then applies
// environment overrides. A missing default file is not an error; a missing
// explicit file is.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	cfg := Default()
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(string(os.PathListSeparator)),
		},
	}
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for i, cp := range c.CustomPaths {
		switch cp.Type {
		case cleaner.CustomFile, cleaner.CustomFolder:
		default:
			return fmt.Errorf("custom_paths[%d]: type must be %q or %q, got %q", i, cleaner.CustomFile, cleaner.CustomFolder, cp.Type)
		}
		if cp.Path == "" {
			return fmt.Errorf("custom_paths[%d]: empty path", i)
		}
	}
	return nil
}

// WhitelistSet returns the default whitelist extended with the configured
// patterns.
func (c *Config) WhitelistSet() *whitelist.Whitelist {
	wl := whitelist.Default()
	wl.Add(c.Whitelist...)
	return wl
}

// System returns the parameters of the built-in System cleaner.
func (c *Config) System() cleaner.SystemConfig {
	return cleaner.SystemConfig{
		CustomPaths: c.CustomPaths,
		ShredDrives: c.ShredDrives,
		Whitelist:   c.WhitelistSet(),
	}
}
