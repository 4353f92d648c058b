package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ConfigPath returns the default config file location.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "hexview", "config.json")
	}
	return filepath.Join(home, ".config", "hexview", "config.json")
}

// LogPath returns the debug log location, next to the config file.
func LogPath() string {
	return filepath.Join(filepath.Dir(ConfigPath()), "debug.log")
}

// Load reads the config from ConfigPath. A missing file yields defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path over the defaults. A missing file yields
// defaults; a malformed or invalid one is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var sc saveConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := mergeConfig(cfg, sc); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// mergeConfig applies the keys present in sc on top of cfg.
func mergeConfig(cfg *Config, sc saveConfig) error {
	if sc.Reader.PageSize != nil {
		cfg.Reader.PageSize = *sc.Reader.PageSize
	}
	if sc.Reader.MaxCachedPages != nil {
		cfg.Reader.MaxCachedPages = *sc.Reader.MaxCachedPages
	}
	if sc.Reader.RowWidth != nil {
		cfg.Reader.RowWidth = *sc.Reader.RowWidth
	}

	if sc.Watch.Enabled != nil {
		cfg.Watch.Enabled = *sc.Watch.Enabled
	}
	if sc.Watch.Debounce != "" {
		d, err := time.ParseDuration(sc.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("watch.debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	}

	if sc.UI.ShowScrollbar != nil {
		cfg.UI.ShowScrollbar = *sc.UI.ShowScrollbar
	}
	if sc.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *sc.UI.ShowFooter
	}
	if sc.UI.Theme.Name != "" {
		cfg.UI.Theme.Name = sc.UI.Theme.Name
	}
	for key, color := range sc.UI.Theme.Overrides {
		cfg.UI.Theme.Overrides[key] = color
	}

	for key, cmdID := range sc.Keymap.Overrides {
		cfg.Keymap.Overrides[key] = cmdID
	}
	return nil
}
