// Package ui renders builder output for the terminal with lipgloss.
package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Preference is the stored theme choice.
type Preference string

const (
	PreferLight  Preference = "light"
	PreferDark   Preference = "dark"
	PreferSystem Preference = "system"
)

func ParsePreference(s string) (Preference, error) {
	switch p := Preference(s); p {
	case PreferLight, PreferDark, PreferSystem:
		return p, nil
	case "":
		return PreferSystem, nil
	}
	return "", fmt.Errorf("theme must be light, dark or system, got %q", s)
}

var (
	lightForeground = lipgloss.Color("#101F38")
	lightMuted      = lipgloss.Color("#6b7280")
	lightAccent     = lipgloss.Color("#2563eb")
	lightBorder     = lipgloss.Color("#d1d5db")
	lightPill       = lipgloss.Color("#e0e7ff")

	darkForeground = lipgloss.Color("#f2f2f2")
	darkMuted      = lipgloss.Color("#9ca3af")
	darkAccent     = lipgloss.Color("#8BC34A")
	darkBorder     = lipgloss.Color("#2a3850")
	darkPill       = lipgloss.Color("#1e2a3d")

	destructive = lipgloss.Color("#e53935")
	success     = lipgloss.Color("#8BC34A")
	warning     = lipgloss.Color("#FFC107")
)

// Theme is a resolved color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Border     lipgloss.Color
	Pill       lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{Foreground: lightForeground, Muted: lightMuted, Accent: lightAccent, Border: lightBorder, Pill: lightPill}
}

func DarkTheme() Theme {
	return Theme{Foreground: darkForeground, Muted: darkMuted, Accent: darkAccent, Border: darkBorder, Pill: darkPill, IsDark: true}
}

// Resolve turns a preference into a theme. System follows the terminal
// background.
func Resolve(p Preference) Theme {
	return resolve(p, lipgloss.HasDarkBackground)
}

func resolve(p Preference, dark func() bool) Theme {
	switch p {
	case PreferDark:
		return DarkTheme()
	case PreferLight:
		return LightTheme()
	}
	if dark() {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components built from a theme.
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Link    lipgloss.Style
	Header  lipgloss.Style
	Pill    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Theme:   t,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginBottom(1),
		Body:    lipgloss.NewStyle().Foreground(t.Foreground),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Bold:    lipgloss.NewStyle().Bold(true).Foreground(t.Foreground),
		Link:    lipgloss.NewStyle().Underline(true).Foreground(t.Accent),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Padding(0, 1),
		Pill:    lipgloss.NewStyle().Foreground(t.Foreground).Background(t.Pill).Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(destructive).Border(lipgloss.RoundedBorder()).BorderForeground(destructive).Padding(0, 1),
		Warning: lipgloss.NewStyle().Foreground(warning),
		Success: lipgloss.NewStyle().Foreground(success),
	}
}

// PreferenceFile holds the theme choice inside the state directory.
const PreferenceFile = "theme.yaml"

type preferenceDoc struct {
	Theme Preference `yaml:"theme"`
}

// LoadPreference reads the stored choice. A missing file yields fallback.
func LoadPreference(dir string, fallback Preference) (Preference, error) {
	data, err := os.ReadFile(filepath.Join(dir, PreferenceFile))
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	var doc preferenceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fallback, fmt.Errorf("parse %s: %w", PreferenceFile, err)
	}
	return ParsePreference(string(doc.Theme))
}

func SavePreference(dir string, p Preference) error {
	if _, err := ParsePreference(string(p)); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(preferenceDoc{Theme: p})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, PreferenceFile), data, 0600)
}
