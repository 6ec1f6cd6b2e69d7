package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	"github.com/eyeoverthink/phiworld/internal/metrics"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WATCH COMMAND (ROOT)
// ═══════════════════════════════════════════════════════════════════════════════

const (
	frameInterval = 50 * time.Millisecond
	minTickRate   = 1
	maxTickRate   = 960
	logLines      = 6
)

const (
	colName   = "name"
	colGen    = "gen"
	colRole   = "role"
	colEnergy = "energy"
	colMind   = "mind"
	colDim    = "dim"
	colSize   = "size"
	colAge    = "age"
	colIntent = "intents"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of the colony",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, err := newHost(ctx, cfg, sink)
	if err != nil {
		return err
	}
	defer h.close()

	_, err = tea.NewProgram(newWatchModel(h), tea.WithAltScreen()).Run()
	return err
}

type frameMsg time.Time

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

type watchModel struct {
	host  *host
	keys  KeyMap
	help  help.Model
	input textinput.Model
	nodes table.Model
	dash  *metrics.Dashboard

	paused bool
	rate   int
	// carry accumulates fractional ticks between frames.
	carry  float64
	output string
	width  int
}

func newWatchModel(h *host) watchModel {
	input := textinput.New()
	input.Prompt = "φ> "
	input.Placeholder = "spawn Zeta 1.2"
	input.CharLimit = 120

	m := watchModel{
		host:  h,
		keys:  DefaultKeyMap,
		help:  help.New(),
		input: input,
		nodes: table.New(nodeColumns()).WithPageSize(12),
		rate:  cfg.World.TickRate,
		width: 100,
	}
	if h.collector != nil {
		m.dash = metrics.NewDashboard(h.collector)
		m.dash.SetStyles(dashboardStyles(palette))
	}
	return m.refresh()
}

func nodeColumns() []table.Column {
	return []table.Column{
		table.NewColumn(colName, "Name", 16),
		table.NewColumn(colGen, "Gen", 4),
		table.NewColumn(colRole, "Role", 10),
		table.NewColumn(colEnergy, "Energy", 7),
		table.NewColumn(colMind, "Mind", 7),
		table.NewColumn(colDim, "Dim", 4),
		table.NewColumn(colSize, "Size", 6),
		table.NewColumn(colAge, "Age", 7),
		table.NewColumn(colIntent, "Intents", 24),
	}
}

func (m watchModel) Init() tea.Cmd {
	return frame()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if m.dash != nil {
			m.dash.SetWidth(msg.Width)
		}
		return m, nil

	case frameMsg:
		if !m.paused {
			m.carry += float64(m.rate) * frameInterval.Seconds()
			for ; m.carry >= 1; m.carry-- {
				m.host.step()
			}
		}
		return m.refresh(), frame()

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Step):
			m.host.step()
			m = m.refresh()
		case key.Matches(msg, m.keys.Faster):
			m.rate = min(m.rate*2, maxTickRate)
		case key.Matches(msg, m.keys.Slower):
			m.rate = max(m.rate/2, minTickRate)
		case key.Matches(msg, m.keys.Command):
			m.output = ""
			cmd := m.input.Focus()
			return m, cmd
		}
	}
	return m, nil
}

func (m watchModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		line := m.input.Value()
		m.input.Blur()
		m.input.Reset()
		out, err := m.host.console.Execute(line)
		if err != nil {
			m.output = errorStyle.Render(describe(err))
		} else {
			m.output = out
		}
		return m.refresh(), nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh rebuilds the node table from the world.
func (m watchModel) refresh() watchModel {
	live := append([]*node.Node(nil), m.host.world.Nodes()...)
	sort.Slice(live, func(i, j int) bool {
		if live[i].Generation() != live[j].Generation() {
			return live[i].Generation() < live[j].Generation()
		}
		return live[i].Name < live[j].Name
	})

	rows := make([]table.Row, 0, len(live))
	for _, n := range live {
		rows = append(rows, nodeRow(n.Snapshot()))
	}
	m.nodes = m.nodes.WithRows(rows)
	return m
}

func nodeRow(s node.Snapshot) table.Row {
	name := s.Name
	if s.InTrial {
		name += "*"
	}
	return table.NewRow(table.RowData{
		colName:   name,
		colGen:    s.Generation,
		colRole:   s.Role,
		colEnergy: fmt.Sprintf("%.2f", s.Energy),
		colMind:   fmt.Sprintf("%.3f", s.Level),
		colDim:    s.Dimension,
		colSize:   fmt.Sprintf("%.1f", s.Size),
		colAge:    s.Age,
		colIntent: s.Intents,
	})
}

func (m watchModel) View() string {
	var b strings.Builder

	stats := m.host.world.Stats()
	state := "running"
	if m.paused {
		state = "paused"
	}
	b.WriteString(titleStyle.Render("φ phiworld"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  seed %d │ tick %d │ %s at %d ticks/s │ archive %d",
		m.host.world.Seed(), stats.Tick, state, m.rate, m.host.archive.Len())))
	b.WriteString("\n\n")

	if m.dash != nil {
		b.WriteString(m.dash.Render())
		b.WriteString("\n")
	}

	b.WriteString(m.nodes.View())
	b.WriteString("\n")

	if sink != nil {
		for _, line := range sink.Lines(logLines) {
			b.WriteString(logStyle.Render(truncate(line, m.width)))
			b.WriteString("\n")
		}
	}

	if m.output != "" {
		b.WriteString(outputStyle.Render(m.output))
		b.WriteString("\n")
	}
	if m.input.Focused() {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func truncate(s string, width int) string {
	s = strings.TrimRight(s, "\n")
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width])
}
