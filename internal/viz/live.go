package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/metrics"
	"github.com/san-kum/linkage/internal/trace"
)

const (
	width           = 60
	height          = 20
	trailCapacity   = 240
	historyCapacity = 120
)

type TickMsg time.Time

// Model is a Bubble Tea program that renders one mechanism. Each tick is
// one frame: the wall-clock time in the message drives the angle.
type Model struct {
	name    string
	initial linkage.MechanismState
	state   linkage.MechanismState
	mode    trace.BranchMode
	pose    linkage.Pose
	started bool
	running bool
	fps     int
	frame   int

	canvas   *Canvas
	viewport Viewport
	trail    []linkage.Point
	history  []float64
	toggles  *metrics.ToggleCount
	err      error
}

func NewModel(name string, st linkage.MechanismState, mode trace.BranchMode, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	canvas := NewCanvas(width, height)
	return Model{
		name:     name,
		initial:  st,
		state:    st,
		mode:     mode,
		running:  true,
		fps:      fps,
		canvas:   canvas,
		viewport: FitMechanism(st.Mechanism, canvas),
		trail:    make([]linkage.Point, 0, trailCapacity),
		history:  make([]float64, 0, historyCapacity),
		toggles:  metrics.NewToggleCount(metrics.DefaultToggleTolerance),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.nudgeRPM(1)
		case "-", "_":
			m.nudgeRPM(-1)
		case "b":
			m.mode = m.mode.Next()
		case "r":
			m.reset()
		case "t":
			NextTheme()
		}
	case TickMsg:
		m.advance(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

// advance runs one frame. The first tick only anchors the clock; while
// paused the clock is re-anchored so resuming does not jump.
func (m *Model) advance(now time.Time) {
	if !m.started || !m.running {
		m.state.Timestamp = now
		if !m.started {
			m.started = true
			m.resolve(true)
		}
		return
	}

	m.state = m.state.Step(now)
	m.resolve(false)
}

func (m *Model) resolve(first bool) {
	m.pose = trace.SolveFrame(m.state, m.mode, m.pose, first)
	m.frame++

	f := trace.Frame{Index: m.frame, Angle: m.state.Angle, RPM: m.state.Mechanism.Crank.RPM, Pose: m.pose}
	m.toggles.Observe(f)

	m.trail = append(m.trail, m.pose.Coupler)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	m.history = append(m.history, m.pose.Coupler.Y)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) nudgeRPM(delta float64) {
	st, err := m.state.WithRPM(m.state.Mechanism.Crank.RPM + delta)
	if err != nil {
		m.err = err
		return
	}
	m.state = st
}

func (m *Model) reset() {
	m.state = m.initial
	m.started = false
	m.frame = 0
	m.trail = m.trail[:0]
	m.history = m.history[:0]
	m.toggles.Reset()
	m.err = nil
}

// State returns the mechanism state of the last frame.
func (m Model) State() linkage.MechanismState { return m.state }

// Pose returns the pose of the last frame.
func (m Model) Pose() linkage.Pose { return m.pose }

func (m Model) Running() bool { return m.running }

func (m Model) Mode() trace.BranchMode { return m.mode }

func (m Model) View() string {
	th := CurrentTheme
	canvasStyle := lipgloss.NewStyle().Foreground(th.Canvas).Padding(1, 2)
	statsStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(th.Muted).
		Padding(1, 2).
		Width(52)
	header := lipgloss.NewStyle().Foreground(th.Header).Bold(true).MarginBottom(1)
	label := lipgloss.NewStyle().Foreground(th.Label).Width(12)
	value := lipgloss.NewStyle().Foreground(th.Value)
	warn := lipgloss.NewStyle().Foreground(th.Warning).Bold(true)
	help := lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1)

	m.canvas.Clear()
	if m.started {
		DrawPose(m.canvas, m.viewport, m.state.Mechanism, m.pose, m.trail)
	}

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.name)) + "\n")
	status := lipgloss.NewStyle().Foreground(th.Active).Bold(true).Render("RUNNING")
	if !m.running {
		status = warn.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	row := func(k, v string) {
		s.WriteString(label.Render(k) + value.Render(v) + "\n")
	}
	row("RPM", fmt.Sprintf("%.1f", m.state.Mechanism.Crank.RPM))
	row("Angle", fmt.Sprintf("%.3f rad", m.state.Angle))
	row("Tilt", fmt.Sprintf("%.3f rad", m.pose.Tilt))
	row("Fixed ∠", fmt.Sprintf("%.3f rad", m.pose.FixedAngle))
	row("Coupler", fmt.Sprintf("(%.1f, %.1f)", m.pose.Coupler.X, m.pose.Coupler.Y))
	row("Branch", fmt.Sprintf("%s (%s)", m.pose.Branch, m.mode))
	row("Toggles", fmt.Sprintf("%.0f", m.toggles.Value()))
	if m.pose.Feasibility != linkage.Feasible {
		s.WriteString(warn.Render("clamped: "+m.pose.Feasibility.String()) + "\n")
	} else if m.started && m.pose.NearToggle(metrics.DefaultToggleTolerance) {
		s.WriteString(warn.Render("dead point") + "\n")
	}
	if m.err != nil {
		s.WriteString(warn.Render(m.err.Error()) + "\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("coupler y"))
		s.WriteString("\n" + chart + "\n")
	}

	s.WriteString(help.Render("SP:Pause +/-:RPM B:Branch\nR:Reset T:Theme Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
}

// Run starts the program on the terminal.
func Run(name string, st linkage.MechanismState, mode trace.BranchMode, fps int) error {
	_, err := tea.NewProgram(NewModel(name, st, mode, fps), tea.WithAltScreen()).Run()
	return err
}
