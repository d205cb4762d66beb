package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/ipc"
)

type pollMsg struct {
	view   *engine.View
	status *ipc.StatusData
	err    error
}

type tickMsg time.Time

type actionMsg struct {
	notice string
	err    error
}

// model is the root bubbletea model for the watch view.
type model struct {
	src      Source
	interval time.Duration

	view   *engine.View
	status *ipc.StatusData
	err    error
	notice string

	width  int
	height int
}

func newModel(src Source, interval time.Duration) model {
	return model{src: src, interval: interval}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.poll()
}

func (m model) poll() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		status, err := src.GetStatus()
		if err != nil {
			return pollMsg{err: err}
		}
		view, err := src.GetTopology()
		return pollMsg{view: view, status: status, err: err}
	}
}

func (m model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) action(notice string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{notice: notice, err: fn()}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.action("switched screen", func() error { return m.src.SwitchScreen("") })
		case "r":
			return m, m.action("configuration reloaded", func() error {
				_, err := m.src.Reload()
				return err
			})
		case "p":
			if m.status != nil && m.status.Stats.Suspended {
				return m, m.action("resumed", m.src.Resume)
			}
			return m, m.action("suspended", m.src.Suspend)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case pollMsg:
		m.err = msg.err
		if msg.err == nil {
			m.view = msg.view
			m.status = msg.status
		}
		return m, m.schedule()

	case tickMsg:
		return m, m.poll()

	case actionMsg:
		if msg.err != nil {
			m.notice = ""
			m.err = msg.err
		} else {
			m.notice = msg.notice
			m.err = nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := m.renderStatusBar()
	helpBar := lipgloss.NewStyle().
		Width(m.width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render("s: switch screen  p: suspend/resume  r: reload  q: quit")

	devices := m.renderDevices()
	used := lipgloss.Height(statusBar) + lipgloss.Height(helpBar) + lipgloss.Height(devices) + 2
	rows := max(m.height-used, 3)
	cols := max(m.width-2, 4)

	var devs []engine.DeviceStatus
	if m.status != nil {
		devs = m.status.Devices
	}
	layout := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Render(renderLayout(m.view, devs, cols, rows))

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		layout,
		devices,
		helpBar,
	)
}

func (m model) renderStatusBar() string {
	var status string
	switch {
	case m.err != nil:
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
		status = dot + " " + m.err.Error()
	case m.status == nil:
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " connecting"
	default:
		st := m.status.Stats
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{dot + " daemon connected", fmt.Sprintf("generation:%d", st.Generation)}
		if m.view != nil {
			parts = append(parts, "mode:"+m.view.ConstraintMode.String())
		}
		parts = append(parts, fmt.Sprintf("transitions:%d", st.Transitions), fmt.Sprintf("dropped:%d", st.Dropped))
		if st.Suspended {
			parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("SUSPENDED"))
		}
		if m.notice != "" {
			parts = append(parts, m.notice)
		}
		status = strings.Join(parts, "  ")
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1).
		Render(status)
}

func (m model) renderDevices() string {
	if m.status == nil || len(m.status.Devices) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1).Render("no devices")
	}
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	lines := make([]string, 0, len(m.status.Devices))
	for _, d := range m.status.Devices {
		lines = append(lines, fmt.Sprintf(" %s  %s  at %s", nameStyle.Render(d.Device), screenName(d.Screen), pointString(d.Position)))
	}
	return strings.Join(lines, "\n")
}
