package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/cradle/internal/sim"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	c, err := sim.New(sim.Settings{
		Balls:          5,
		StartingDegree: 30,
		UseLeft:        true,
		LeftCount:      1,
		Physics: sim.Physics{
			Gravity:      9.81,
			Mass:         1,
			Radius:       0.25,
			ArmLength:    1.5,
			MaxDeltaTime: 1.0 / 30,
		},
	})
	if err != nil {
		t.Fatalf("new cradle: %v", err)
	}
	return NewModel(c, 1.0/60)
}

func press(m Model, k tea.KeyMsg) Model {
	next, _ := m.Update(k)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	if w != 8 || h != 8 {
		t.Fatalf("expected 8x8 dots, got %dx%d", w, h)
	}

	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Error("expected dot to be set")
	}
	if c.IsSet(2, 5) {
		t.Error("expected neighbour to stay clear")
	}

	// out of range writes are ignored
	c.Set(-1, 0)
	c.Set(100, 100)

	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("expected clear canvas")
	}
	if strings.Count(c.String(), "\n") != 2 {
		t.Errorf("expected 2 rows, got %q", c.String())
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 9, 9)
	for i := 0; i < 10; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("expected diagonal dot %d to be set", i)
		}
	}
}

func TestCanvasDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)
	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 28}, {20, 12}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected circle to pass through %v", p)
		}
	}
	if c.IsSet(20, 20) {
		t.Error("expected hollow circle")
	}

	c.Clear()
	c.FillCircle(20, 20, 3)
	if !c.IsSet(20, 20) || !c.IsSet(22, 20) {
		t.Error("expected filled disc")
	}
}

func TestNextThemeWraps(t *testing.T) {
	theme := Themes[len(Themes)-1]
	if NextTheme(theme).Name != Themes[0].Name {
		t.Errorf("expected wrap to %s", Themes[0].Name)
	}
	if GetTheme("missing").Name != ThemeSteel.Name {
		t.Error("expected fallback to steel")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("expected one name per theme")
	}
}

func TestModelToggle(t *testing.T) {
	m := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.cradle.Running() {
		t.Fatal("expected space to start the cradle")
	}

	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("expected tick to schedule the next tick")
	}
	if m.cradle.FrameIndex() != 1 {
		t.Errorf("expected one step, got %d", m.cradle.FrameIndex())
	}
	if len(m.energyHistory) != 1 {
		t.Errorf("expected energy sample, got %d", len(m.energyHistory))
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if m.cradle.Running() {
		t.Error("expected space to stop the cradle")
	}
}

func TestModelAdjustSettings(t *testing.T) {
	m := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.cradle.Settings().Balls; got != 6 {
		t.Errorf("expected 6 balls, got %d", got)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.cradle.Settings().StartingDegree; got != 35 {
		t.Errorf("expected 35 degrees, got %f", got)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.cradle.Settings().UseLeft {
		t.Error("expected left side disabled")
	}
}

func TestModelRejectsEditWhileRunning(t *testing.T) {
	m := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})

	if got := m.cradle.Settings().Balls; got != 5 {
		t.Errorf("expected ball count unchanged while running, got %d", got)
	}
	if m.message == "" {
		t.Error("expected a status message")
	}
}

func TestModelInvalidAdjust(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if got := m.cradle.Settings().Balls; got != sim.MinBalls {
		t.Errorf("expected ball count clamped at %d, got %d", sim.MinBalls, got)
	}
	if m.message == "" {
		t.Error("expected the rejected change to be reported")
	}
}

func TestModelThemeAndQuit(t *testing.T) {
	m := newTestModel(t)
	m = press(m, runes("t"))
	if m.theme.Name != NextTheme(ThemeSteel).Name {
		t.Errorf("expected theme to advance, got %s", m.theme.Name)
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	for _, want := range []string{"NEWTON'S CRADLE", "STOPPED", "Spheres"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestLeftShare(t *testing.T) {
	m := newTestModel(t)
	f := m.cradle.Frame()
	f.Dt = 1.0 / 60
	if share := leftShare(f); share <= 0.5 {
		t.Errorf("expected raised left ball to dominate, got %f", share)
	}
}

func TestModelResetStops(t *testing.T) {
	m := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	next, _ := m.Update(TickMsg{})
	m = next.(Model)

	m = press(m, runes("r"))
	if m.cradle.Running() {
		t.Error("expected reset to stop the cradle")
	}
	if m.cradle.FrameIndex() != 0 {
		t.Errorf("expected frame counter reset, got %d", m.cradle.FrameIndex())
	}
}

func TestDrawCradle(t *testing.T) {
	m := newTestModel(t)
	c := NewCanvas(width, height)
	DrawCradle(c, m.cradle.Settings(), m.cradle.Transforms())

	l := newLayout(c, m.cradle.Settings())
	for i, tr := range m.cradle.Transforms() {
		x, y := l.project(tr.Offset.X(), tr.Offset.Y())
		if !c.IsSet(x, y) {
			t.Errorf("body %d: expected pivot dot at (%d, %d)", i, x, y)
		}
	}

	DrawCradle(c, m.cradle.Settings(), nil)
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != brailleBlank && r != '\n' }) {
		t.Error("expected empty canvas without transforms")
	}
}

func TestModelStepsByWallTime(t *testing.T) {
	m := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tickAt := func(m Model, at time.Time) Model {
		next, _ := m.Update(TickMsg(at))
		return next.(Model)
	}

	// the first tick has nothing to measure against
	m = tickAt(m, t0)
	if got := m.cradle.Elapsed(); math.Abs(got-1.0/60) > 1e-12 {
		t.Fatalf("expected fallback dt on first tick, elapsed %f", got)
	}

	m = tickAt(m, t0.Add(20*time.Millisecond))
	if got := m.cradle.Elapsed(); math.Abs(got-(1.0/60+0.02)) > 1e-12 {
		t.Errorf("expected measured 20ms step, elapsed %f", got)
	}

	// a pause must not turn into one long step on resume
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	m = tickAt(m, t0.Add(5*time.Second))
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	before := m.cradle.Elapsed()
	m = tickAt(m, t0.Add(5*time.Second+10*time.Millisecond))
	if got := m.cradle.Elapsed() - before; math.Abs(got-1.0/60) > 1e-12 {
		t.Errorf("expected fallback dt after resume, stepped %f", got)
	}
}
