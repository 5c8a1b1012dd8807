// Package theme provides color palettes for the terminal new-tab page.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Colors are "#RRGGBB" strings.
//
// The palette only colors the chrome; suggestion kinds each get their own
// color so an answer never looks like a completion.
type Theme struct {
	Name string
	Dark bool

	Background    string // ignored when TransparentBg is set
	TransparentBg bool   // use the terminal's own background
	Foreground    string
	Dim           string

	Accent string // prompt and locked-mode icon
	Pin    string // pin numbers

	Answer     string
	Link       string
	Reword     string
	Completion string

	Error string
}

// Styles are the lipgloss styles the TUI renders with.
type Styles struct {
	Base       lipgloss.Style
	Prompt     lipgloss.Style
	Icon       lipgloss.Style
	Dim        lipgloss.Style
	PinIndex   lipgloss.Style
	PinURL     lipgloss.Style
	Answer     lipgloss.Style
	Link       lipgloss.Style
	Reword     lipgloss.Style
	Completion lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
}

// Styles builds the lipgloss styles for the palette.
func (t *Theme) Styles() Styles {
	fg := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}

	base := fg(t.Foreground)
	if !t.TransparentBg {
		base = base.Background(lipgloss.Color(t.Background))
	}

	return Styles{
		Base:       base,
		Prompt:     fg(t.Accent).Bold(true),
		Icon:       fg(t.Accent),
		Dim:        fg(t.Dim),
		PinIndex:   fg(t.Pin).Bold(true),
		PinURL:     fg(t.Dim),
		Answer:     fg(t.Answer),
		Link:       fg(t.Link).Underline(true),
		Reword:     fg(t.Reword).Italic(true),
		Completion: fg(t.Completion),
		Selected:   lipgloss.NewStyle().Reverse(true),
		Error:      fg(t.Error),
	}
}

// Valid reports whether every color in the palette is a "#RRGGBB" string.
func (t *Theme) Valid() bool {
	colors := []string{t.Foreground, t.Dim, t.Accent, t.Pin, t.Answer, t.Link, t.Reword, t.Completion, t.Error}
	if !t.TransparentBg {
		colors = append(colors, t.Background)
	}
	for _, c := range colors {
		if !isHex(c) {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range strings.ToLower(s[1:]) {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// Built-in themes
var (
	// Default - uses the terminal's native background
	DefaultDark = &Theme{
		Name:          "default-dark",
		Dark:          true,
		TransparentBg: true,
		Foreground:    "#e0e0e0",
		Dim:           "#666666",
		Accent:        "#5fd7d7", // cyan
		Pin:           "#d7d700", // yellow
		Answer:        "#5fd75f",
		Link:          "#5f87d7",
		Reword:        "#d7af5f",
		Completion:    "#e0e0e0",
		Error:         "#d75f5f",
	}

	DefaultLight = &Theme{
		Name:       "default-light",
		Background: "#fafafa",
		Foreground: "#1a1a1a",
		Dim:        "#888888",
		Accent:     "#00838f", // teal
		Pin:        "#b58900",
		Answer:     "#2e7d32",
		Link:       "#1565c0",
		Reword:     "#f57c00",
		Completion: "#1a1a1a",
		Error:      "#c62828",
	}

	// Solarized - Ethan Schoonover's precision colors
	SolarizedDark = &Theme{
		Name:       "solarized-dark",
		Dark:       true,
		Background: "#002b36", // base03
		Foreground: "#839496", // base0
		Dim:        "#586e75", // base01
		Accent:     "#2aa198", // cyan
		Pin:        "#b58900", // yellow
		Answer:     "#859900", // green
		Link:       "#268bd2", // blue
		Reword:     "#cb4b16", // orange
		Completion: "#839496",
		Error:      "#dc322f",
	}

	SolarizedLight = &Theme{
		Name:       "solarized-light",
		Background: "#fdf6e3", // base3
		Foreground: "#657b83", // base00
		Dim:        "#93a1a1", // base1
		Accent:     "#2aa198",
		Pin:        "#b58900",
		Answer:     "#859900",
		Link:       "#268bd2",
		Reword:     "#cb4b16",
		Completion: "#657b83",
		Error:      "#dc322f",
	}

	// Nord - Arctic, north-bluish color palette
	Nord = &Theme{
		Name:       "nord",
		Dark:       true,
		Background: "#2e3440", // nord0
		Foreground: "#d8dee9", // nord4
		Dim:        "#4c566a", // nord3
		Accent:     "#88c0d0", // nord8
		Pin:        "#ebcb8b", // nord13
		Answer:     "#a3be8c", // nord14
		Link:       "#81a1c1", // nord9
		Reword:     "#d08770", // nord12
		Completion: "#d8dee9",
		Error:      "#bf616a", // nord11
	}

	Dracula = &Theme{
		Name:       "dracula",
		Dark:       true,
		Background: "#282a36",
		Foreground: "#f8f8f2",
		Dim:        "#6272a4",
		Accent:     "#bd93f9",
		Pin:        "#f1fa8c",
		Answer:     "#50fa7b",
		Link:       "#8be9fd",
		Reword:     "#ffb86c",
		Completion: "#f8f8f2",
		Error:      "#ff5555",
	}

	// Gruvbox - Retro groove color scheme
	GruvboxDark = &Theme{
		Name:       "gruvbox-dark",
		Dark:       true,
		Background: "#282828",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#8ec07c",
		Pin:        "#fabd2f",
		Answer:     "#b8bb26",
		Link:       "#83a598",
		Reword:     "#fe8019",
		Completion: "#ebdbb2",
		Error:      "#fb4934",
	}

	GruvboxLight = &Theme{
		Name:       "gruvbox-light",
		Background: "#fbf1c7",
		Foreground: "#3c3836",
		Dim:        "#928374",
		Accent:     "#427b58",
		Pin:        "#b57614",
		Answer:     "#79740e",
		Link:       "#076678",
		Reword:     "#af3a03",
		Completion: "#3c3836",
		Error:      "#9d0006",
	}

	// Tokyo Night - Clean dark theme inspired by Tokyo city lights
	TokyoNight = &Theme{
		Name:       "tokyo-night",
		Dark:       true,
		Background: "#1a1b26",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7dcfff",
		Pin:        "#e0af68",
		Answer:     "#9ece6a",
		Link:       "#7aa2f7",
		Reword:     "#ff9e64",
		Completion: "#c0caf5",
		Error:      "#f7768e",
	}

	// Catppuccin - Soothing pastel theme
	CatppuccinMocha = &Theme{
		Name:       "catppuccin-mocha",
		Dark:       true,
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Dim:        "#6c7086",
		Accent:     "#94e2d5",
		Pin:        "#f9e2af",
		Answer:     "#a6e3a1",
		Link:       "#89b4fa",
		Reword:     "#fab387",
		Completion: "#cdd6f4",
		Error:      "#f38ba8",
	}

	CatppuccinLatte = &Theme{
		Name:       "catppuccin-latte",
		Background: "#eff1f5",
		Foreground: "#4c4f69",
		Dim:        "#9ca0b0",
		Accent:     "#179299",
		Pin:        "#df8e1d",
		Answer:     "#40a02b",
		Link:       "#1e66f5",
		Reword:     "#fe640b",
		Completion: "#4c4f69",
		Error:      "#d20f39",
	}
)

// All contains all built-in themes for iteration.
var All = []*Theme{
	DefaultDark,
	DefaultLight,
	SolarizedDark,
	SolarizedLight,
	Nord,
	Dracula,
	GruvboxDark,
	GruvboxLight,
	TokyoNight,
	CatppuccinMocha,
	CatppuccinLatte,
}

// Lookup finds a built-in theme by name.
func Lookup(name string) (*Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Names lists the built-in theme names.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Next returns the theme after t in All, wrapping around.
func Next(t *Theme) *Theme {
	for i, x := range All {
		if x == t {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// Toggle returns the light or dark variant of t, or t itself if it has
// none.
func Toggle(t *Theme) *Theme {
	var variant string
	switch {
	case strings.HasSuffix(t.Name, "-dark"):
		variant = strings.TrimSuffix(t.Name, "-dark") + "-light"
	case strings.HasSuffix(t.Name, "-light"):
		variant = strings.TrimSuffix(t.Name, "-light") + "-dark"
	case t.Name == "catppuccin-mocha":
		variant = "catppuccin-latte"
	case t.Name == "catppuccin-latte":
		variant = "catppuccin-mocha"
	}
	if v, ok := Lookup(variant); ok {
		return v
	}
	return t
}
