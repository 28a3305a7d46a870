package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - titles, focused labels
	ColorHighlight = "205" // Magenta - focus ring, borders
	ColorDanger    = "196" // Red - errors
	ColorMuted     = "241" // Gray - labels, hints
	ColorText      = "252" // Light gray - normal text

	ColorLoad  = "#FBF07B"
	ColorSave  = "#5CED73"
	ColorClear = "#FF7F7F"
)

// Styles contains shared style definitions used by the form and the app shell.
var Styles = struct {
	Title  lipgloss.Style // Bold accent color
	Box    lipgloss.Style // Rounded border around the form
	Label  lipgloss.Style // Input labels
	Focus  lipgloss.Style // Label of the focused input
	Hint   lipgloss.Style // Help text
	Status lipgloss.Style // Toast text
	Error  lipgloss.Style // Error line

	Button        lipgloss.Style // Action button, colored per action
	ButtonFocused lipgloss.Style // Extra decoration when focused
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(1, 2).
		Margin(1),
	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Focus: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)).
		Bold(true),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Button: lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Padding(0, 2).
		MarginRight(2),
	ButtonFocused: lipgloss.NewStyle().
		Bold(true).
		Underline(true),
}

// buttonStyle returns the style for an action button.
func buttonStyle(color string, focused bool) lipgloss.Style {
	s := Styles.Button.Background(lipgloss.Color(color))
	if focused {
		s = s.Inherit(Styles.ButtonFocused)
	}
	return s
}
