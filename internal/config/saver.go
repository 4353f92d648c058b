package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
// It is also the shape Load decodes, so a file only needs the keys it sets.
type saveConfig struct {
	Reader saveReaderConfig `json:"reader"`
	Watch  saveWatchConfig  `json:"watch"`
	UI     saveUIConfig     `json:"ui"`
	Keymap KeymapConfig     `json:"keymap"`
}

type saveReaderConfig struct {
	PageSize       *int64 `json:"pageSize,omitempty"`
	MaxCachedPages *int   `json:"maxCachedPages,omitempty"`
	RowWidth       *int   `json:"rowWidth,omitempty"`
}

type saveWatchConfig struct {
	Enabled  *bool  `json:"enabled,omitempty"`
	Debounce string `json:"debounce,omitempty"`
}

type saveUIConfig struct {
	ShowScrollbar *bool       `json:"showScrollbar,omitempty"`
	ShowFooter    *bool       `json:"showFooter,omitempty"`
	Theme         ThemeConfig `json:"theme"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Reader: saveReaderConfig{
			PageSize:       &cfg.Reader.PageSize,
			MaxCachedPages: &cfg.Reader.MaxCachedPages,
			RowWidth:       &cfg.Reader.RowWidth,
		},
		Watch: saveWatchConfig{
			Enabled:  &cfg.Watch.Enabled,
			Debounce: cfg.Watch.Debounce.String(),
		},
		UI: saveUIConfig{
			ShowScrollbar: &cfg.UI.ShowScrollbar,
			ShowFooter:    &cfg.UI.ShowFooter,
			Theme:         cfg.UI.Theme,
		},
		Keymap: cfg.Keymap,
	}
}

// Save writes the config to ~/.config/hexview/config.json
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	sc := toSaveConfig(cfg)
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
