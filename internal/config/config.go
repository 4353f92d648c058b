package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Reader ReaderConfig `json:"reader"`
	Watch  WatchConfig  `json:"watch"`
	UI     UIConfig     `json:"ui"`
	Keymap KeymapConfig `json:"keymap"`
}

// ReaderConfig configures the paged file accessor.
type ReaderConfig struct {
	PageSize       int64 `json:"pageSize"`       // bytes per page; 0 = OS page size
	MaxCachedPages int   `json:"maxCachedPages"` // 0 = never evict
	RowWidth       int   `json:"rowWidth"`       // bytes per row; must divide PageSize
}

// WatchConfig configures live reload.
type WatchConfig struct {
	Enabled  bool          `json:"enabled"`
	Debounce time.Duration `json:"debounce"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowScrollbar bool        `json:"showScrollbar"`
	ShowFooter    bool        `json:"showFooter"`
	Theme         ThemeConfig `json:"theme"`
}

// ThemeConfig configures the color theme.
type ThemeConfig struct {
	Name      string            `json:"name"`
	Overrides map[string]string `json:"overrides"`
}

// KeymapConfig holds user key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"` // key -> command ID
}

const (
	defaultRowWidth = 16
	defaultDebounce = 100 * time.Millisecond
	maxRowWidth     = 256
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			PageSize:       int64(os.Getpagesize()),
			MaxCachedPages: 0,
			RowWidth:       defaultRowWidth,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: defaultDebounce,
		},
		UI: UIConfig{
			ShowScrollbar: true,
			ShowFooter:    true,
			Theme: ThemeConfig{
				Name:      "default",
				Overrides: make(map[string]string),
			},
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
	}
}

// Validate fills unset values with defaults and rejects combinations the
// reader cannot serve.
func (c *Config) Validate() error {
	if c.Reader.PageSize <= 0 {
		c.Reader.PageSize = int64(os.Getpagesize())
	}
	if c.Reader.RowWidth <= 0 {
		c.Reader.RowWidth = defaultRowWidth
	}
	if c.Reader.MaxCachedPages < 0 {
		c.Reader.MaxCachedPages = 0
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = defaultDebounce
	}
	if c.UI.Theme.Name == "" {
		c.UI.Theme.Name = "default"
	}
	if c.UI.Theme.Overrides == nil {
		c.UI.Theme.Overrides = make(map[string]string)
	}
	if c.Keymap.Overrides == nil {
		c.Keymap.Overrides = make(map[string]string)
	}

	var errs []error
	if c.Reader.RowWidth > maxRowWidth {
		errs = append(errs, fmt.Errorf("reader.rowWidth %d exceeds %d", c.Reader.RowWidth, maxRowWidth))
	}
	// Rows are read one range per row and a range may not cross a page.
	if c.Reader.PageSize%int64(c.Reader.RowWidth) != 0 {
		errs = append(errs, fmt.Errorf("reader.rowWidth %d must divide reader.pageSize %d",
			c.Reader.RowWidth, c.Reader.PageSize))
	}
	return errors.Join(errs...)
}
