package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard renders collector state for terminal output.
type Dashboard struct {
	collector *Collector
	styles    DashboardStyles
	width     int
}

// DashboardStyles defines the styling for the dashboard.
type DashboardStyles struct {
	Border    lipgloss.Style
	Header    lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Good      lipgloss.Style
	Bad       lipgloss.Style
	Highlight lipgloss.Style
}

// NewDashboard creates a dashboard renderer.
func NewDashboard(collector *Collector) *Dashboard {
	return &Dashboard{
		collector: collector,
		width:     80,
		styles:    defaultDashboardStyles(),
	}
}

func defaultDashboardStyles() DashboardStyles {
	return DashboardStyles{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Value:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		Good:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
		Bad:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// SetStyles replaces the dashboard styles.
func (d *Dashboard) SetStyles(s DashboardStyles) {
	d.styles = s
}

// SetWidth sets the dashboard width.
func (d *Dashboard) SetWidth(w int) {
	d.width = w
}

// Render returns the boxed multi-line dashboard.
func (d *Dashboard) Render() string {
	s := d.collector.Session()
	last := s.Last

	var b strings.Builder
	b.WriteString(d.styles.Header.Render("COLONY"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s │ %s %s │ %s %s\n",
		d.styles.Label.Render("Tick:"),
		d.styles.Value.Render(fmt.Sprintf("%d", last.Tick)),
		d.styles.Label.Render("Population:"),
		d.styles.Value.Render(fmt.Sprintf("%d (peak %d)", last.Population, s.PeakPopulation)),
		d.styles.Label.Render("Energy:"),
		d.formatEnergy(last.AvgEnergy),
	)
	fmt.Fprintf(&b, "%s %s │ %s %s │ %s %s\n",
		d.styles.Label.Render("Births:"),
		d.styles.Highlight.Render(fmt.Sprintf("%d", last.Births)),
		d.styles.Label.Render("Deaths:"),
		d.styles.Highlight.Render(fmt.Sprintf("%d", last.Deaths)),
		d.styles.Label.Render("Generation:"),
		d.styles.Value.Render(fmt.Sprintf("%d", s.MaxGeneration)),
	)
	fmt.Fprintf(&b, "%s %s │ %s %s │ %s",
		d.styles.Label.Render("Mind:"),
		d.styles.Value.Render(fmt.Sprintf("%.3f coh %.2f", last.AvgConsciousness, last.AvgCoherence)),
		d.styles.Label.Render("Blocks:"),
		d.styles.Value.Render(fmt.Sprintf("%d", s.BlocksSeen)),
		d.renderActivity(s.LastEventTime),
	)

	return d.styles.Border.Width(d.width - 4).Render(b.String())
}

// RenderCompact returns a single-line summary.
func (d *Dashboard) RenderCompact() string {
	s := d.collector.Session()
	return fmt.Sprintf("[tick %d] pop %d │ E %.2f │ gen %d │ births %d deaths %d │ blocks %d",
		s.Last.Tick, s.Last.Population, s.Last.AvgEnergy, s.MaxGeneration,
		s.Last.Births, s.Last.Deaths, s.BlocksSeen)
}

func (d *Dashboard) formatEnergy(e float64) string {
	formatted := fmt.Sprintf("%.2f", e)
	switch {
	case e >= 0.6:
		return d.styles.Good.Render(formatted)
	case e >= 0.3:
		return d.styles.Highlight.Render(formatted)
	default:
		return d.styles.Bad.Render(formatted)
	}
}

func (d *Dashboard) renderActivity(last time.Time) string {
	if last.IsZero() {
		return "○"
	}
	if time.Since(last) < 2*time.Second {
		return d.styles.Good.Render("●")
	}
	return "●"
}
