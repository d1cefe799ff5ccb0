package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat interface
type TUITheme struct {
	Name        string
	Description string

	// MarkdownStyle is the glamour style that matches the palette
	MarkdownStyle string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color // user label, focused border
	Secondary lipgloss.Color // assistant label
	Accent    lipgloss.Color // thinking indicator
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// palette lists colors in TUITheme field order, Background through TextMute
type palette [11]string

func newTheme(name, description, markdownStyle string, p palette) TUITheme {
	c := func(i int) lipgloss.Color { return lipgloss.Color(p[i]) }
	return TUITheme{
		Name:          name,
		Description:   description,
		MarkdownStyle: markdownStyle,
		Background:    c(0),
		Surface:       c(1),
		Border:        c(2),
		Primary:       c(3),
		Secondary:     c(4),
		Accent:        c(5),
		Warning:       c(6),
		Error:         c(7),
		Text:          c(8),
		TextDim:       c(9),
		TextMute:      c(10),
	}
}

// Built-in TUI themes
var (
	TokyoNightTheme = newTheme("tokyonight", "Tokyo Night - Dark theme with blue accents", StyleTokyoNight, palette{
		"#1a1b26", "#24283b", "#414868",
		"#7aa2f7", "#9ece6a", "#bb9af7", "#e0af68", "#f7768e",
		"#c0caf5", "#565f89", "#3b4261",
	})

	CatppuccinMochaTheme = newTheme("catppuccin", "Catppuccin Mocha - Warm dark theme with pastel colors", StyleDark, palette{
		"#1e1e2e", "#313244", "#45475a",
		"#89b4fa", "#a6e3a1", "#cba6f7", "#f9e2af", "#f38ba8",
		"#cdd6f4", "#6c7086", "#45475a",
	})

	NordTheme = newTheme("nord", "Nord - Arctic-inspired theme with cool tones", StyleDark, palette{
		"#2e3440", "#3b4252", "#4c566a",
		"#88c0d0", "#a3be8c", "#b48ead", "#ebcb8b", "#bf616a",
		"#eceff4", "#7b88a1", "#4c566a",
	})

	DraculaTheme = newTheme("dracula", "Dracula - Dark theme with vibrant colors", StyleDracula, palette{
		"#282a36", "#44475a", "#6272a4",
		"#8be9fd", "#50fa7b", "#ff79c6", "#f1fa8c", "#ff5555",
		"#f8f8f2", "#6272a4", "#44475a",
	})
)

var tuiThemes = []TUITheme{
	TokyoNightTheme,
	CatppuccinMochaTheme,
	NordTheme,
	DraculaTheme,
}

var (
	themeMu         sync.RWMutex
	currentTUITheme = TokyoNightTheme
)

// GetTUITheme returns the active TUI theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates the named theme. Unknown names leave it unchanged.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, theme := range tuiThemes {
		if theme.Name == name {
			return theme, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes returns the built-in themes in display order
func AvailableTUIThemes() []TUITheme {
	out := make([]TUITheme, len(tuiThemes))
	copy(out, tuiThemes)
	return out
}

func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
