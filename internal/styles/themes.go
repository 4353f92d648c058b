package styles

import (
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// themeMu protects access to themeRegistry and currentTheme
var themeMu sync.RWMutex

// hexColorRegex validates hex color codes (#RRGGBB or #RRGGBBAA with alpha)
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ColorPalette holds all theme colors
type ColorPalette struct {
	Primary string `json:"primary"` // prompt label
	Accent  string `json:"accent"`  // ascii column

	Warning string `json:"warning"`
	Error   string `json:"error"`

	TextPrimary string `json:"textPrimary"`
	TextMuted   string `json:"textMuted"` // header, footer, addresses

	Selection   string `json:"selection"` // cursor row background
	SelectionFg string `json:"selectionFg"`

	ScrollbarTrack string `json:"scrollbarTrack"`
	ScrollbarThumb string `json:"scrollbarThumb"`
}

// Theme represents a complete theme configuration
type Theme struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Colors      ColorPalette `json:"colors"`
}

// Built-in themes
var (
	DefaultTheme = Theme{
		Name:        "default",
		DisplayName: "Default Dark",
		Colors: ColorPalette{
			Primary:        "#7C3AED", // Purple
			Accent:         "#F59E0B", // Amber
			Warning:        "#F59E0B",
			Error:          "#EF4444",
			TextPrimary:    "#F9FAFB",
			TextMuted:      "#6B7280",
			Selection:      "#374151",
			SelectionFg:    "#F9FAFB",
			ScrollbarTrack: "#374151",
			ScrollbarThumb: "#9CA3AF",
		},
	}

	DraculaTheme = Theme{
		Name:        "dracula",
		DisplayName: "Dracula",
		Colors: ColorPalette{
			Primary:        "#BD93F9", // Purple
			Accent:         "#FFB86C", // Orange
			Warning:        "#FFB86C",
			Error:          "#FF5555",
			TextPrimary:    "#F8F8F2",
			TextMuted:      "#6272A4", // Comment
			Selection:      "#44475A", // Current Line
			SelectionFg:    "#F8F8F2",
			ScrollbarTrack: "#44475A",
			ScrollbarThumb: "#BFBFBF",
		},
	}

	NordTheme = Theme{
		Name:        "nord",
		DisplayName: "Nord",
		Colors: ColorPalette{
			Primary:        "#88C0D0", // Frost Cyan
			Accent:         "#EBCB8B", // Aurora Yellow
			Warning:        "#EBCB8B",
			Error:          "#BF616A", // Aurora Red
			TextPrimary:    "#D8DEE9", // Snow Storm 1
			TextMuted:      "#4C566A",
			Selection:      "#434C5E",
			SelectionFg:    "#ECEFF4",
			ScrollbarTrack: "#3B4252",
			ScrollbarThumb: "#81A1C1",
		},
	}
)

// themeRegistry holds all available themes
var themeRegistry = map[string]Theme{
	"default": DefaultTheme,
	"dracula": DraculaTheme,
	"nord":    NordTheme,
}

var currentTheme = "default"

// Colors and styles derived from the active theme. ApplyTheme rewrites them.
var (
	Primary        lipgloss.Color
	Accent         lipgloss.Color
	Warning        lipgloss.Color
	Error          lipgloss.Color
	TextPrimary    lipgloss.Color
	TextMuted      lipgloss.Color
	Selection      lipgloss.Color
	SelectionFg    lipgloss.Color
	ScrollbarTrack lipgloss.Color
	ScrollbarThumb lipgloss.Color

	Prompt      lipgloss.Style
	Header      lipgloss.Style
	Address     lipgloss.Style
	Ascii       lipgloss.Style
	CursorRow   lipgloss.Style
	Footer      lipgloss.Style
	WarningText lipgloss.Style
	ErrorText   lipgloss.Style
)

func init() {
	ApplyThemeColors(DefaultTheme)
}

// IsValidHexColor checks if a string is a valid hex color code (#RRGGBB or #RRGGBBAA)
func IsValidHexColor(hex string) bool {
	return hexColorRegex.MatchString(hex)
}

// IsValidTheme checks if a theme name exists in the registry
func IsValidTheme(name string) bool {
	themeMu.RLock()
	defer themeMu.RUnlock()
	_, ok := themeRegistry[name]
	return ok
}

// GetTheme returns a theme by name, or the default theme if not found
func GetTheme(name string) Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if theme, ok := themeRegistry[name]; ok {
		return theme
	}
	return DefaultTheme
}

// GetCurrentThemeName returns the name of the currently active theme
func GetCurrentThemeName() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// ListThemes returns the names of all available themes in sorted order
func ListThemes() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	names := make([]string, 0, len(themeRegistry))
	for name := range themeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyThemeWithOverrides applies a theme with color overrides from config.
// Unknown theme names fall back to the default theme.
func ApplyThemeWithOverrides(name string, overrides map[string]string) {
	theme := GetTheme(name)
	for key, value := range overrides {
		applySingleOverride(&theme.Colors, key, value)
	}

	ApplyThemeColors(theme)
	themeMu.Lock()
	currentTheme = theme.Name
	themeMu.Unlock()
}

// applySingleOverride applies a single override. Values must be valid hex
// colors; invalid ones and unknown keys are ignored.
func applySingleOverride(palette *ColorPalette, key, value string) {
	if !IsValidHexColor(value) {
		return
	}

	switch key {
	case "primary":
		palette.Primary = value
	case "accent":
		palette.Accent = value
	case "warning":
		palette.Warning = value
	case "error":
		palette.Error = value
	case "textPrimary":
		palette.TextPrimary = value
	case "textMuted":
		palette.TextMuted = value
	case "selection":
		palette.Selection = value
	case "selectionFg":
		palette.SelectionFg = value
	case "scrollbarTrack":
		palette.ScrollbarTrack = value
	case "scrollbarThumb":
		palette.ScrollbarThumb = value
	}
}

// ApplyThemeColors updates all color variables and styles from a theme
func ApplyThemeColors(theme Theme) {
	c := theme.Colors

	Primary = lipgloss.Color(c.Primary)
	Accent = lipgloss.Color(c.Accent)
	Warning = lipgloss.Color(c.Warning)
	Error = lipgloss.Color(c.Error)
	TextPrimary = lipgloss.Color(c.TextPrimary)
	TextMuted = lipgloss.Color(c.TextMuted)
	Selection = lipgloss.Color(c.Selection)
	SelectionFg = lipgloss.Color(c.SelectionFg)
	ScrollbarTrack = lipgloss.Color(c.ScrollbarTrack)
	ScrollbarThumb = lipgloss.Color(c.ScrollbarThumb)

	Prompt = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Header = lipgloss.NewStyle().Foreground(TextMuted).Underline(true)
	Address = lipgloss.NewStyle().Foreground(TextMuted)
	Ascii = lipgloss.NewStyle().Foreground(Accent)
	CursorRow = lipgloss.NewStyle().Background(Selection).Foreground(SelectionFg)
	Footer = lipgloss.NewStyle().Foreground(TextMuted)
	WarningText = lipgloss.NewStyle().Foreground(Warning)
	ErrorText = lipgloss.NewStyle().Foreground(Error)
}
