package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-percolation/pkg/runner"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	removalsView
	viewCount
)

// maxRows bounds the removal table; older rows are dropped.
const maxRows = 500

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit (checkpoint kept)"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type (
	stepMsg runner.Progress
	doneMsg runner.JobResult
	tickMsg time.Time
)

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	title       string
	currentView view
	giantBar    progress.Model
	removedBar  progress.Model
	removals    table.Model
	rows        []table.Row
	help        help.Model
	keys        keyMap
	width       int
	height      int
	startTime   time.Time
	now         time.Time

	n0        int
	last      *runner.Progress
	steps     int
	replayed  int
	candidate int

	done *runner.JobResult
}

func newModel(title string) model {
	columns := []table.Column{
		{Title: "Step", Width: 8},
		{Title: "Node", Width: 8},
		{Title: "Giant", Width: 10},
		{Title: "Second", Width: 8},
		{Title: "Present", Width: 8},
		{Title: "Candidates", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	now := time.Now()
	return model{
		title:       title,
		currentView: dashboardView,
		giantBar:    progress.New(progress.WithDefaultGradient()),
		removedBar:  progress.New(progress.WithSolidFill("#FF00FF")),
		removals:    t,
		help:        help.New(),
		keys:        keys,
		startTime:   now,
		now:         now,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		barWidth := max(msg.Width-20, 10)
		m.giantBar.Width = barWidth
		m.removedBar.Width = barWidth

	case tickMsg:
		m.now = time.Time(msg)
		if m.done != nil {
			return m, nil
		}
		return m, tickCmd()

	case stepMsg:
		m.observe(runner.Progress(msg))
		return m, nil

	case doneMsg:
		res := runner.JobResult(msg)
		m.done = &res
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount

		case key.Matches(msg, m.keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount
		}
	}

	if m.currentView == removalsView {
		m.removals, cmd = m.removals.Update(msg)
	}
	return m, cmd
}

// observe folds one attack step into the model. Newest removals come first.
func (m *model) observe(p runner.Progress) {
	m.n0 = p.N0
	m.last = &p
	m.steps = p.Step.Index + 1
	if p.Step.Replayed {
		m.replayed++
	}
	m.candidate = len(p.Step.Candidates)

	candidates := "-"
	if m.candidate > 0 {
		candidates = strconv.Itoa(m.candidate)
	}
	row := table.Row{
		strconv.Itoa(p.Step.Index),
		strconv.Itoa(p.Step.Removed),
		strconv.Itoa(p.Step.GiantSize),
		strconv.Itoa(p.Step.SecondSize),
		strconv.Itoa(p.Step.Present),
		candidates,
	}
	m.rows = append([]table.Row{row}, m.rows...)
	if len(m.rows) > maxRows {
		m.rows = m.rows[:maxRows]
	}
	m.removals.SetRows(m.rows)
}

// giantFraction is the relative giant size before the latest removal.
func (m model) giantFraction() float64 {
	if m.last == nil || m.n0 == 0 {
		return 1
	}
	return float64(m.last.Step.GiantSize) / float64(m.n0)
}

func (m model) removedFraction() float64 {
	if m.n0 == 0 {
		return 0
	}
	return float64(m.steps) / float64(m.n0)
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("percolate-watch " + m.title))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case removalsView:
		s.WriteString(m.renderRemovals())
	}

	if status := m.renderStatus(); status != "" {
		s.WriteString("\n\n")
		s.WriteString(status)
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Dashboard", "Removals"}
	var renderedTabs []string

	for i, tab := range tabs {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderDashboard() string {
	var s strings.Builder

	s.WriteString("Giant component\n")
	s.WriteString(m.giantBar.ViewAs(m.giantFraction()))
	s.WriteString("\n\nNodes removed\n")
	s.WriteString(m.removedBar.ViewAs(m.removedFraction()))
	s.WriteString("\n\n")

	elapsed := m.now.Sub(m.startTime).Round(time.Second)
	if m.done != nil {
		elapsed = m.done.Elapsed.Round(time.Millisecond)
	}
	giant, second, present := 0, 0, 0
	if m.last != nil {
		giant, second, present = m.last.Step.GiantSize, m.last.Step.SecondSize, m.last.Step.Present
	}
	stats := fmt.Sprintf(`Attack
N0:         %d
Steps:      %d
Replayed:   %d
Elapsed:    %s

Latest step
Giant:      %d
Second:     %d
Present:    %d`,
		m.n0, m.steps, m.replayed, elapsed, giant, second, present)

	s.WriteString(statsBoxStyle.Render(stats))
	return contentStyle.Render(s.String())
}

func (m model) renderRemovals() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Removals"))
	s.WriteString("\n\n")
	s.WriteString(m.removals.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Newest first • navigate with ↑/↓"))

	return contentStyle.Render(s.String())
}

func (m model) renderStatus() string {
	if m.done == nil {
		return ""
	}
	switch m.done.Outcome {
	case runner.OutcomeFailed:
		return errorStyle.Render(fmt.Sprintf("✗ attack failed: %v", m.done.Err))
	case runner.OutcomeSkipped:
		return successStyle.Render("✓ output exists, nothing to do (use --overwrite)")
	case runner.OutcomeInterrupted:
		return errorStyle.Render(fmt.Sprintf("✗ interrupted after %d steps, checkpoint kept", m.done.Steps))
	}
	return successStyle.Render(fmt.Sprintf("✓ %d steps, %s, results in %s",
		m.done.Steps, m.done.Reason, m.done.Dir))
}
