package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cradle/internal/physics"
)

func testSettings() Settings {
	return Settings{
		Balls:          5,
		StartingDegree: 30,
		UseLeft:        true,
		LeftCount:      1,
		Physics: Physics{
			Gravity:      9.81,
			Mass:         1.0,
			Radius:       0.25,
			ArmLength:    1.5,
			MaxDeltaTime: 1.0 / 30,
		},
	}
}

func TestNewStopped(t *testing.T) {
	c, err := New(testSettings())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if c.State() != Stopped {
		t.Errorf("expected stopped, got %s", c.State())
	}
	if len(c.Bodies()) != 5 || len(c.Pairs()) != 4 {
		t.Errorf("expected 5 bodies and 4 pairs, got %d and %d", len(c.Bodies()), len(c.Pairs()))
	}
}

func TestToggle(t *testing.T) {
	c, _ := New(testSettings())
	if got := c.Toggle(); got != Running {
		t.Errorf("expected running, got %s", got)
	}
	if got := c.Toggle(); got != Stopped {
		t.Errorf("expected stopped, got %s", got)
	}
}

func TestStartingAngles(t *testing.T) {
	s := testSettings()
	s.LeftCount = 2
	s.UseRight = true
	s.RightCount = 1
	c, err := New(s)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	want := 30 * math.Pi / 180
	expected := []float64{-want, -want, 0, 0, want}
	for i, tr := range c.Transforms() {
		if math.Abs(tr.Swing-expected[i]) > 1e-9 {
			t.Errorf("body %d: expected swing %f, got %f", i, expected[i], tr.Swing)
		}
	}
}

func TestPivotsCentered(t *testing.T) {
	c, _ := New(testSettings())
	tr := c.Transforms()
	if math.Abs(tr[0].Offset.X()+tr[4].Offset.X()) > 1e-12 {
		t.Errorf("expected symmetric pivots, got %f and %f", tr[0].Offset.X(), tr[4].Offset.X())
	}
	for i := 1; i < len(tr); i++ {
		if d := tr[i].Offset.X() - tr[i-1].Offset.X(); math.Abs(d-0.5) > 1e-12 {
			t.Errorf("expected spacing 0.5, got %f", d)
		}
	}
}

func TestConfigureRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		target error
	}{
		{"too few balls", func(s *Settings) { s.Balls = 4 }, ErrBallCount},
		{"too many balls", func(s *Settings) { s.Balls = 12 }, ErrBallCount},
		{"degree too low", func(s *Settings) { s.StartingDegree = 29 }, ErrInvalidConfig},
		{"degree too high", func(s *Settings) { s.StartingDegree = 81 }, ErrInvalidConfig},
		{"left exceeds balls", func(s *Settings) { s.LeftCount = 6 }, ErrSideCount},
		{"right exceeds balls", func(s *Settings) { s.UseRight = true; s.RightCount = 6 }, ErrSideCount},
		{"disabled left exceeds balls", func(s *Settings) { s.UseLeft = false; s.LeftCount = 99 }, ErrSideCount},
		{"disabled right negative", func(s *Settings) { s.RightCount = -1 }, ErrSideCount},
		{"sides overlap", func(s *Settings) { s.LeftCount = 3; s.UseRight = true; s.RightCount = 3 }, ErrSideCount},
		{"zero mass", func(s *Settings) { s.Physics.Mass = 0 }, ErrInvalidConfig},
		{"arm shorter than radius", func(s *Settings) { s.Physics.ArmLength = 0.1 }, ErrInvalidConfig},
		{"nan gravity", func(s *Settings) { s.Physics.Gravity = math.NaN() }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := New(testSettings())
			before := c.Bodies()

			s := testSettings()
			tt.modify(&s)
			err := c.Configure(s)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %T", err)
			}
			if c.Settings() != testSettings() {
				t.Error("settings changed after rejected configure")
			}
			after := c.Bodies()
			if len(after) != len(before) || after[0] != before[0] {
				t.Error("bodies changed after rejected configure")
			}
		})
	}
}

func TestConfigureWhileRunning(t *testing.T) {
	c, _ := New(testSettings())
	c.Toggle()
	c.Step(1.0 / 60)
	before := c.Bodies()

	if err := c.SetBallCount(7); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning from SetBallCount, got %v", err)
	}
	if err := c.SetStartingAngles(45, true, 2, false, 0); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning from SetStartingAngles, got %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning from Reset, got %v", err)
	}

	after := c.Bodies()
	if len(after) != 5 {
		t.Fatalf("expected 5 bodies, got %d", len(after))
	}
	for i := range after {
		if after[i] != before[i] {
			t.Errorf("body %d changed while running", i)
		}
	}
}

func TestSetBallCountRebuilds(t *testing.T) {
	c, _ := New(testSettings())

	for _, m := range []int{11, 5, 8} {
		if err := c.SetBallCount(m); err != nil {
			t.Fatalf("set %d: %v", m, err)
		}
		pairs := c.Pairs()
		if len(c.Bodies()) != m || len(pairs) != m-1 {
			t.Errorf("expected %d bodies and %d pairs, got %d and %d", m, m-1, len(c.Bodies()), len(pairs))
		}
		for i, p := range pairs {
			if p.A < 0 || p.A >= m || p.B < 0 || p.B >= m || p.B != p.A+1 || p.A != i {
				t.Errorf("ball count %d: invalid pair %d (%d, %d)", m, i, p.A, p.B)
			}
		}
	}
}

func TestSetBallCountShrinksSides(t *testing.T) {
	s := testSettings()
	s.Balls = 9
	s.LeftCount = 4
	s.UseRight = true
	s.RightCount = 4
	c, err := New(s)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := c.SetBallCount(5); err != nil {
		t.Fatalf("shrink failed: %v", err)
	}
	got := c.Settings()
	if got.LeftCount+got.RightCount > 5 {
		t.Errorf("expected sides to fit 5 balls, got %d+%d", got.LeftCount, got.RightCount)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("expected lowered settings to validate, got %v", err)
	}

	if err := c.SetBallCount(MinBalls - 1); !errors.Is(err, ErrBallCount) {
		t.Fatalf("expected ErrBallCount, got %v", err)
	}
	if c.Settings() != got || len(c.Bodies()) != 5 {
		t.Error("expected rejected ball count to leave the cradle untouched")
	}
}

func TestStepStoppedIsNoop(t *testing.T) {
	c, _ := New(testSettings())
	before := c.Bodies()

	c.Step(1.0 / 60)

	if c.FrameIndex() != 0 {
		t.Errorf("expected frame 0, got %d", c.FrameIndex())
	}
	after := c.Bodies()
	for i := range after {
		if after[i] != before[i] {
			t.Errorf("body %d moved while stopped", i)
		}
	}
}

func TestStepZeroDtIsNoop(t *testing.T) {
	c, _ := New(testSettings())
	c.Toggle()
	before := c.Bodies()

	c.Step(0)
	c.Step(-1)

	if c.FrameIndex() != 0 {
		t.Errorf("expected frame 0, got %d", c.FrameIndex())
	}
	after := c.Bodies()
	for i := range after {
		if after[i] != before[i] {
			t.Errorf("body %d moved on zero dt", i)
		}
	}
}

func TestStepClampsDt(t *testing.T) {
	c, _ := New(testSettings())
	c.Toggle()

	c.Step(1.0)

	if math.Abs(c.Elapsed()-1.0/30) > 1e-12 {
		t.Errorf("expected elapsed clamped to 1/30, got %f", c.Elapsed())
	}
}

func TestStepNotifiesObservers(t *testing.T) {
	c, _ := New(testSettings())
	var frames []Frame
	c.AddObserver(ObserverFunc(func(f Frame) { frames = append(frames, f) }))
	c.Toggle()

	for i := 0; i < 3; i++ {
		c.Step(1.0 / 60)
	}

	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[2].Index != 3 {
		t.Errorf("expected index 3, got %d", frames[2].Index)
	}
	// snapshots must not alias the live bodies
	frames[0].Bodies[0].Mass = 99
	if c.Bodies()[0].Mass == 99 {
		t.Error("observer frame aliases cradle state")
	}
}

func TestResetRestoresStart(t *testing.T) {
	c, _ := New(testSettings())
	start := c.Bodies()
	c.Toggle()
	for i := 0; i < 20; i++ {
		c.Step(1.0 / 60)
	}
	c.Toggle()

	if err := c.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	after := c.Bodies()
	for i := range after {
		if after[i] != start[i] {
			t.Errorf("body %d not restored", i)
		}
	}
	if c.FrameIndex() != 0 || c.Elapsed() != 0 {
		t.Error("expected frame counters reset")
	}
}

func TestTransformWorld(t *testing.T) {
	c, _ := New(testSettings())
	base := mgl64.Ident4()
	for _, tr := range c.Transforms() {
		w := tr.World(base)
		if math.Abs(w.At(0, 3)-tr.Position.X()) > 1e-12 || math.Abs(w.At(1, 3)-tr.Position.Y()) > 1e-12 {
			t.Errorf("expected translation %v, got (%f, %f)", tr.Position, w.At(0, 3), w.At(1, 3))
		}
	}
}

// stepByHand runs the per-body pipeline on b the way Step does for a body that
// touches nothing.
func stepByHand(b *physics.Body, g, dt, correction float64) {
	b.ApplyGravity(g)
	b.Update(dt, correction)
	b.SolveConstraint()
	b.PostSolveConstraint()
	b.ClearForces()
}

func TestStepTimestepCorrection(t *testing.T) {
	c, err := New(testSettings())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	g := c.Settings().Physics.Gravity
	start := c.Bodies()[0]

	want := start
	stepByHand(&want, g, 1.0/60, 1)
	stepByHand(&want, g, 1.0/30, 2)

	fixed := start
	stepByHand(&fixed, g, 1.0/60, 1)
	stepByHand(&fixed, g, 1.0/30, 1)

	c.Toggle()
	c.Step(1.0 / 60)
	c.Step(1.0 / 30)

	got := c.Bodies()[0].Position
	if physics.Distance(got.Sub(want.Position)) > 1e-12 {
		t.Errorf("expected correction dt/lastDt = 2, got position %v want %v", got, want.Position)
	}
	if physics.Distance(want.Position.Sub(fixed.Position)) < 1e-6 {
		t.Fatal("correction has no visible effect in this setup")
	}

	c.Toggle()
	if err := c.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	c.Toggle()
	c.Step(1.0 / 30)

	first := start
	stepByHand(&first, g, 1.0/30, 1)
	if got := c.Bodies()[0].Position; physics.Distance(got.Sub(first.Position)) > 1e-12 {
		t.Errorf("expected correction 1 after reset, got position %v want %v", got, first.Position)
	}
}
