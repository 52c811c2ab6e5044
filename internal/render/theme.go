package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vthunder/tasktracker/internal/tasks"
)

// Theme is the palette for one display mode. Colors are ANSI 256-color
// codes.
type Theme struct {
	Success lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color

	RowText     lipgloss.Color
	FaintText   lipgloss.Color
	HeaderText  lipgloss.Color
	BorderColor lipgloss.Color
}

// DayTheme uses bright row backgrounds with dark text
var DayTheme = Theme{
	Success:     lipgloss.Color("114"),
	Warning:     lipgloss.Color("221"),
	Danger:      lipgloss.Color("203"),
	RowText:     lipgloss.Color("16"),
	FaintText:   lipgloss.Color("240"),
	HeaderText:  lipgloss.Color("24"),
	BorderColor: lipgloss.Color("250"),
}

// NightTheme uses muted backgrounds with light text
var NightTheme = Theme{
	Success:     lipgloss.Color("22"),
	Warning:     lipgloss.Color("94"),
	Danger:      lipgloss.Color("88"),
	RowText:     lipgloss.Color("252"),
	FaintText:   lipgloss.Color("245"),
	HeaderText:  lipgloss.Color("117"),
	BorderColor: lipgloss.Color("238"),
}

// ThemeFor picks the palette for the night-mode preference
func ThemeFor(nightMode bool) Theme {
	if nightMode {
		return NightTheme
	}
	return DayTheme
}

// Background returns the row color for an urgency
func (t Theme) Background(u tasks.Urgency) lipgloss.Color {
	switch u {
	case tasks.Danger:
		return t.Danger
	case tasks.Warning:
		return t.Warning
	default:
		return t.Success
	}
}
