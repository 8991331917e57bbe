package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cradle/internal/metrics"
	"github.com/san-kum/cradle/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
)

// setting is one row of the settings panel.
type setting int

const (
	settingBalls setting = iota
	settingDegree
	settingUseLeft
	settingLeftCount
	settingUseRight
	settingRightCount
	settingCount
)

var settingNames = [settingCount]string{
	"Spheres", "Degree", "Use left", "Left count", "Use right", "Right count",
}

type TickMsg time.Time

// Model is the bubbletea model for the live view. It steps the cradle once per
// tick by the wall time since the previous tick and draws it onto a braille
// canvas. dt is only used for the first tick after a start.
type Model struct {
	cradle   *sim.Cradle
	dt       float64
	lastTick time.Time

	canvas        *Canvas
	theme         Theme
	selected      setting
	energyHistory []float64
	impacts       []float64
	message       string
	frame         int
	showHelp      bool
}

func NewModel(c *sim.Cradle, dt float64) Model {
	return Model{
		cradle:        c,
		dt:            dt,
		canvas:        NewCanvas(width, height),
		theme:         ThemeSteel,
		energyHistory: make([]float64, 0, historyCapacity),
		impacts:       make([]float64, 0, historyCapacity),
	}
}

// WithTheme returns a copy of m drawn in theme t.
func (m Model) WithTheme(t Theme) Model {
	m.theme = t
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "enter":
			m.toggle()
		case "tab", "down", "j":
			m.selected = (m.selected + 1) % settingCount
		case "shift+tab", "up", "k":
			m.selected = (m.selected + settingCount - 1) % settingCount
		case "right", "l", "+", "=":
			m.adjust(1)
		case "left", "h", "-", "_":
			m.adjust(-1)
		case "r":
			if m.cradle.Running() {
				m.cradle.Toggle()
			}
			m.apply(m.cradle.Reset())
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.step(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

// frameDt is the wall time since the previous tick, or dt when there is no
// usable previous tick.
func (m *Model) frameDt(now time.Time) float64 {
	last := m.lastTick
	m.lastTick = now
	if last.IsZero() || now.IsZero() || !now.After(last) {
		return m.dt
	}
	return now.Sub(last).Seconds()
}

func (m *Model) toggle() {
	if m.cradle.Toggle() == sim.Stopped {
		m.message = ""
	}
	m.frame = 0
	m.lastTick = time.Time{}
}

func (m *Model) step(now time.Time) {
	m.frame++
	if !m.cradle.Running() {
		m.lastTick = time.Time{}
		return
	}
	m.cradle.Step(m.frameDt(now))
	if err := m.cradle.Validate(); err != nil {
		m.cradle.Toggle()
		m.message = err.Error()
		return
	}

	f := m.cradle.Frame()
	m.energyHistory = appendCapped(m.energyHistory, metrics.TotalEnergy(f))
	m.impacts = appendCapped(m.impacts, f.Impact)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// adjust changes the selected setting by one notch in direction dir.
func (m *Model) adjust(dir int) {
	s := m.cradle.Settings()
	switch m.selected {
	case settingBalls:
		m.apply(m.cradle.SetBallCount(s.Balls + dir))
		return
	case settingDegree:
		s.StartingDegree += 5 * float64(dir)
	case settingUseLeft:
		s.UseLeft = !s.UseLeft
	case settingLeftCount:
		s.LeftCount += dir
	case settingUseRight:
		s.UseRight = !s.UseRight
	case settingRightCount:
		s.RightCount += dir
	}
	m.apply(m.cradle.SetStartingAngles(s.StartingDegree, s.UseLeft, s.LeftCount, s.UseRight, s.RightCount))
}

func (m *Model) apply(err error) {
	switch {
	case err == nil:
		m.message = ""
		m.energyHistory = m.energyHistory[:0]
		m.impacts = m.impacts[:0]
	case errors.Is(err, sim.ErrRunning):
		m.message = "stop the cradle to change settings"
	default:
		m.message = err.Error()
	}
}

// layout maps world coordinates onto canvas dots so the whole swing range
// fits.
type layout struct {
	scale  float64
	cx, cy float64
}

func newLayout(c *Canvas, s sim.Settings) layout {
	p := s.Physics
	reach := float64(s.Balls-1)/2*p.Spacing() + p.ArmLength + p.Radius
	w, h := c.Dots()
	scale := math.Min(float64(w)/(2*reach*1.05), float64(h-6)/(p.ArmLength+2*p.Radius))
	return layout{scale: scale, cx: float64(w) / 2, cy: 4}
}

func (l layout) project(x, y float64) (int, int) {
	return int(math.Round(l.cx + x*l.scale)), int(math.Round(l.cy - y*l.scale))
}

// DrawCradle clears c and draws the top bar, strings and balls.
func DrawCradle(c *Canvas, s sim.Settings, transforms []sim.Transform) {
	c.Clear()
	if len(transforms) == 0 {
		return
	}
	l := newLayout(c, s)

	radius := int(math.Max(1, s.Physics.Radius*l.scale))
	w, _ := c.Dots()
	c.DrawLine(0, int(l.cy), w-1, int(l.cy))

	for _, tr := range transforms {
		px, py := l.project(tr.Offset.X(), tr.Offset.Y())
		bx, by := l.project(tr.Position.X(), tr.Position.Y())
		c.DrawLine(px, py, bx, by)
		c.DrawCircle(bx, by, radius)
		// mark the body rotation so the constraint torque is visible
		sin, cos := math.Sincos(tr.Angle)
		c.Set(bx+int(float64(radius)*sin/2), by+int(float64(radius)*cos/2))
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	DrawCradle(m.canvas, m.cradle.Settings(), m.cradle.Transforms())
	ballStyle := lipgloss.NewStyle().Foreground(m.theme.Balls)
	canvasView := canvasStyle.Render(ballStyle.Render(m.canvas.String()))

	var b strings.Builder
	b.WriteString(headerStyle.Render("NEWTON'S CRADLE") + "\n")

	status := StatusStopped.Render("STOPPED")
	if m.cradle.Running() {
		status = StatusRunning.Render(AnimatedSpinner(m.frame/4) + " RUNNING")
	}
	b.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	f := m.cradle.Frame()
	b.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", f.Time)) + "\n")
	b.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", f.Index)) + "\n")
	if f.Dt > 0 {
		b.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.3f J", metrics.TotalEnergy(f))) + "\n")
		b.WriteString(labelStyle.Render("Left/Right") + ShareBar(leftShare(f), 20) + "\n")
		rates := make([]float64, len(f.Bodies))
		for i := range f.Bodies {
			rates[i] = math.Abs(metrics.SwingRate(&f.Bodies[i], f.Dt))
		}
		b.WriteString(labelStyle.Render("Swing") + Sparkline(rates) + "\n")
	}

	b.WriteString("\nSETTINGS\n")
	s := m.cradle.Settings()
	for i := setting(0); i < settingCount; i++ {
		line := fmt.Sprintf("%-12s %s", settingNames[i], settingValue(s, i))
		switch {
		case i == m.selected:
			b.WriteString(activeStyle.Render("> "+line) + "\n")
		case (i == settingLeftCount && !s.UseLeft) || (i == settingRightCount && !s.UseRight):
			b.WriteString("  " + disabledStyle.Render(line) + "\n")
		default:
			b.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}
	if m.message != "" {
		b.WriteString("\n" + errorStyle.Render(m.message) + "\n")
	}

	b.WriteString(helpStyle.Render("─────────────────────\nSP:Run/Stop R:Reset Q:Quit\n↑↓:Select ←→:Adjust T:Theme"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(b.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Run/Stop                 ║
║  R        - Reset balls              ║
║  Up/Down  - Select setting           ║
║  Left/Rt  - Adjust setting           ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func settingValue(s sim.Settings, i setting) string {
	switch i {
	case settingBalls:
		return fmt.Sprintf("%d", s.Balls)
	case settingDegree:
		return fmt.Sprintf("%.0f°", s.StartingDegree)
	case settingUseLeft:
		return onOff(s.UseLeft)
	case settingLeftCount:
		return fmt.Sprintf("%d", s.LeftCount)
	case settingUseRight:
		return onOff(s.UseRight)
	case settingRightCount:
		return fmt.Sprintf("%d", s.RightCount)
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// leftShare is the fraction of mechanical energy held by balls left of centre.
func leftShare(f sim.Frame) float64 {
	left, total := 0.0, 0.0
	n := len(f.Bodies)
	for i := range f.Bodies {
		ke, pe := metrics.BodyEnergy(&f.Bodies[i], f.Gravity, f.Dt)
		e := math.Max(ke+pe, 0)
		total += e
		if 2*i+1 < n {
			left += e
		} else if 2*i+1 == n {
			left += e / 2
		}
	}
	if total == 0 {
		return 0.5
	}
	return left / total
}
