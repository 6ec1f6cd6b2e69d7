package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/eyeoverthink/phiworld/internal/metrics"
	"github.com/eyeoverthink/phiworld/internal/theme"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STYLES
// ═══════════════════════════════════════════════════════════════════════════════

var (
	palette = theme.Default()

	promptStyle lipgloss.Style
	errorStyle  lipgloss.Style
	noteStyle   lipgloss.Style
	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	logStyle    lipgloss.Style
	outputStyle lipgloss.Style
)

func init() {
	applyTheme(palette)
}

// applyTheme rebuilds the shared styles from p.
func applyTheme(p theme.Palette) {
	palette = p
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Primary)).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Error))
	noteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.GetAccent()))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary))
	logStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.GetMuted()))
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Foreground))
}

func dashboardStyles(p theme.Palette) metrics.DashboardStyles {
	return metrics.DashboardStyles{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(0, 1),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Primary)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary)),
		Value:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Foreground)),
		Good:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Success)),
		Bad:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Error)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Warning)),
	}
}
