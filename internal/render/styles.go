package render

import (
	"github.com/charmbracelet/glamour/styles"
)

// Markdown style names accepted in Options.Style
const (
	StyleAuto       = styles.AutoStyle
	StyleDark       = styles.DarkStyle
	StyleLight      = styles.LightStyle
	StyleDracula    = styles.DraculaStyle
	StyleTokyoNight = "tokyonight"
	StyleNoTTY      = styles.NoTTYStyle
	StyleASCII      = styles.AsciiStyle
)

// styleAliases maps the names used by the TUI themes onto glamour's names
var styleAliases = map[string]string{
	StyleTokyoNight: styles.TokyoNightStyle,
	"catppuccin":    styles.DarkStyle,
	"nord":          styles.DarkStyle,
}

// StyleInfo describes a markdown style for display purposes.
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles lists the built-in markdown styles.
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: StyleDark, Description: "Dark theme (default)"},
		{Name: StyleLight, Description: "Light theme for bright terminals"},
		{Name: StyleTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: StyleDracula, Description: "Dracula color scheme"},
		{Name: StyleAuto, Description: "Pick dark or light from the terminal background"},
		{Name: StyleNoTTY, Description: "Plain text (no styling)"},
		{Name: StyleASCII, Description: "ASCII-only output"},
	}
}

// IsBuiltinStyle reports whether style names a built-in style rather than a file.
func IsBuiltinStyle(style string) bool {
	if _, ok := styleAliases[style]; ok {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok || style == StyleAuto
}

// resolveStyle returns the glamour style name or path for style.
func resolveStyle(style string) string {
	if style == "" {
		return StyleDark
	}
	if alias, ok := styleAliases[style]; ok {
		return alias
	}
	return style
}
