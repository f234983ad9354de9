package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/propagator"
)

const (
	width    = 60
	height   = 20
	maxSpeed = 64
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	hitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

var axisNames = [3]string{"x", "y", "z"}

type TickMsg time.Time

// Model replays the samples of a propagation step by step.
type Model struct {
	title    string
	result   *propagator.Result
	frame    int
	speed    int
	running  bool
	showHelp bool
	canvas   *Canvas

	// horizontal and vertical projection axes with their ranges
	hAxis, vAxis int
	lo, span     [3]float64
}

func NewModel(title string, result *propagator.Result) Model {
	m := Model{
		title:   title,
		result:  result,
		speed:   1,
		running: true,
		canvas:  NewCanvas(width, height),
	}
	m.fitAxes()
	return m
}

func component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// fitAxes projects onto the two coordinates the track spans most.
func (m *Model) fitAxes() {
	var lo, hi [3]float64
	for i := range lo {
		lo[i], hi[i] = math.Inf(1), math.Inf(-1)
	}
	for _, s := range m.result.Samples {
		for i := 0; i < 3; i++ {
			c := component(s.Position, i)
			lo[i] = math.Min(lo[i], c)
			hi[i] = math.Max(hi[i], c)
		}
	}

	for i := range lo {
		m.span[i] = hi[i] - lo[i]
		m.lo[i] = lo[i]
		if !(m.span[i] > 1e-9) {
			m.lo[i] = lo[i] - 1
			m.span[i] = 2
			if math.IsInf(lo[i], 0) {
				m.lo[i] = -1
			}
		}
	}

	m.hAxis, m.vAxis = 0, 1
	spans := hi
	for i := range spans {
		spans[i] = hi[i] - lo[i]
	}
	for i := 1; i < 3; i++ {
		if spans[i] > spans[m.hAxis] {
			m.hAxis = i
		}
	}
	m.vAxis = -1
	for i := 0; i < 3; i++ {
		if i != m.hAxis && (m.vAxis < 0 || spans[i] > spans[m.vAxis]) {
			m.vAxis = i
		}
	}
}

func (m Model) project(p r3.Vec) (int, int) {
	w, h := float64(m.canvas.Width*2-1), float64(m.canvas.Height*4-1)
	x := (component(p, m.hAxis) - m.lo[m.hAxis]) / m.span[m.hAxis] * w
	y := h - (component(p, m.vAxis)-m.lo[m.vAxis])/m.span[m.vAxis]*h
	return int(math.Round(x)), int(math.Round(y))
}

func (m Model) last() int { return len(m.result.Samples) - 1 }

func (m Model) Frame() int { return m.frame }

func (m Model) Running() bool { return m.running }

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.frame = 0
			m.running = true
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.frame = min(m.frame+m.speed, m.last())
			if m.frame == m.last() {
				m.running = false
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) scrub(dir int) {
	m.running = false
	m.frame = max(0, min(m.frame+dir, m.last()))
}

func (m Model) draw() {
	m.canvas.Clear()
	samples := m.result.Samples
	if len(samples) == 0 {
		return
	}
	x0, y0 := m.project(samples[0].Position)
	m.canvas.Set(x0, y0)
	for _, s := range samples[1 : m.frame+1] {
		x1, y1 := m.project(s.Position)
		m.canvas.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}

	// mark reached surfaces with a short bar across the track
	path := samples[m.frame].Path
	for _, h := range m.result.Hits {
		if math.Abs(h.Path) > math.Abs(path)+1e-9 {
			continue
		}
		hx, hy := m.project(h.Parameters.Position())
		m.canvas.DrawLine(hx, hy-3, hx, hy+3)
	}
}

func (m Model) reachedHits() int {
	if len(m.result.Samples) == 0 {
		return 0
	}
	path := math.Abs(m.result.Samples[m.frame].Path)
	n := 0
	for _, h := range m.result.Hits {
		if math.Abs(h.Path) <= path+1e-9 {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	if len(m.result.Samples) == 0 {
		return headerStyle.Render(strings.ToUpper(m.title)) + "\nno samples\n"
	}
	m.draw()
	s := m.result.Samples[m.frame]

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := "RUNNING"
	switch {
	case m.frame == m.last():
		status = "DONE: " + string(m.result.AbortReason)
	case !m.running:
		status = "PAUSED"
	}
	b.WriteString(fmt.Sprintf("%s  x%d\n\n", status, m.speed))

	if sigma := m.sigmaHistory(); len(sigma) > 1 {
		chart := asciigraph.Plot(sigma, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("sigma loc0"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d / %d", s.Step, m.result.StepsTaken))
	row("Path", fmt.Sprintf("%.3f mm", s.Path))
	row("Step size", fmt.Sprintf("%.3f mm", s.StepSize))
	row("Position", fmt.Sprintf("(%.2f, %.2f, %.2f)", s.Position.X, s.Position.Y, s.Position.Z))
	row("Time", fmt.Sprintf("%.4f", s.Time))
	row("View", axisNames[m.hAxis]+" / "+axisNames[m.vAxis])
	b.WriteString(labelStyle.Render("Hits") + hitStyle.Render(fmt.Sprintf("%d / %d", m.reachedHits(), len(m.result.Hits))) + "\n")

	b.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Restart Q:Quit\n[ ]:Scrub +/-:Speed ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(b.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume replay      ║
║  R        - Restart from the start   ║
║  Q        - Quit                     ║
║  [ / ]    - Step back / forward      ║
║  + / -    - Faster / slower          ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func (m Model) sigmaHistory() []float64 {
	out := make([]float64, 0, m.frame+1)
	nonzero := false
	for _, s := range m.result.Samples[:m.frame+1] {
		out = append(out, s.Sigma[0])
		nonzero = nonzero || s.Sigma[0] != 0
	}
	if !nonzero {
		return nil
	}
	return out
}

// Run starts the viewer on the terminal.
func Run(title string, result *propagator.Result) error {
	_, err := tea.NewProgram(NewModel(title, result), tea.WithAltScreen()).Run()
	return err
}
