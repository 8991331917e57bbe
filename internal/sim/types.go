package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cradle/internal/physics"
)

const (
	MinBalls = 5
	MaxBalls = 11

	MinStartingDegree = 30.0
	MaxStartingDegree = 80.0
)

// State is the driver's run state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Settings is everything needed to build a row of bodies.
type Settings struct {
	Balls          int
	StartingDegree float64
	UseLeft        bool
	LeftCount      int
	UseRight       bool
	RightCount     int
	Physics        Physics
}

// Physics holds the per-body constants and world parameters.
type Physics struct {
	Gravity   float64
	Mass      float64
	Radius    float64
	ArmLength float64
	// Gap is the resting distance between neighbouring ball surfaces.
	Gap float64
	// MaxDeltaTime clamps frame hitches. Zero disables the clamp.
	MaxDeltaTime float64
}

// Spacing is the distance between neighbouring pivots.
func (p Physics) Spacing() float64 {
	return 2*p.Radius + p.Gap
}

func (s Settings) Validate() error {
	if s.Balls < MinBalls || s.Balls > MaxBalls {
		return &ConfigError{Field: "balls", Value: s.Balls, Wrapped: ErrBallCount}
	}
	if s.StartingDegree < MinStartingDegree || s.StartingDegree > MaxStartingDegree {
		return &ConfigError{Field: "starting_degree", Value: s.StartingDegree, Wrapped: ErrInvalidConfig}
	}
	if s.LeftCount < 0 || s.LeftCount > s.Balls {
		return &ConfigError{Field: "left_count", Value: s.LeftCount, Wrapped: ErrSideCount}
	}
	if s.RightCount < 0 || s.RightCount > s.Balls {
		return &ConfigError{Field: "right_count", Value: s.RightCount, Wrapped: ErrSideCount}
	}
	if s.UseLeft && s.UseRight && s.LeftCount+s.RightCount > s.Balls {
		return &ConfigError{Field: "left_count+right_count", Value: s.LeftCount + s.RightCount, Wrapped: ErrSideCount}
	}
	return s.Physics.Validate()
}

func (p Physics) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    bool
	}{
		{"gravity", p.Gravity, p.Gravity >= 0},
		{"mass", p.Mass, p.Mass > 0},
		{"radius", p.Radius, p.Radius > 0},
		{"arm_length", p.ArmLength, p.ArmLength > p.Radius},
		{"gap", p.Gap, p.Gap >= 0},
		{"max_delta_time", p.MaxDeltaTime, p.MaxDeltaTime >= 0},
	}
	for _, c := range checks {
		if !c.ok || math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &ConfigError{Field: c.field, Value: c.value, Wrapped: ErrInvalidConfig}
		}
	}
	return nil
}

// Transform is one body's per-frame output.
type Transform struct {
	Position physics.Vector3
	Angle    float64
	// Swing is the pendulum angle about the pivot, positive towards +X.
	Swing float64
	// Offset is the pivot the body hangs from.
	Offset physics.Vector3
}

// World composes base with the body's translation and rotation.
func (t Transform) World(base mgl64.Mat4) mgl64.Mat4 {
	return base.
		Mul4(mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())).
		Mul4(mgl64.HomogRotate3DZ(t.Angle))
}

// Frame is a snapshot of the cradle after a step. Bodies is a copy owned by
// the receiver.
type Frame struct {
	Index   int
	Time    float64
	Dt      float64
	Gravity float64
	Impact  float64
	Bodies  []physics.Body
}

// Transforms returns the frame's bodies as transforms in creation order.
func (f Frame) Transforms() []Transform {
	out := make([]Transform, len(f.Bodies))
	for i := range f.Bodies {
		out[i] = transformOf(&f.Bodies[i])
	}
	return out
}

func transformOf(b *physics.Body) Transform {
	return Transform{
		Position: b.Position,
		Angle:    b.Angle,
		Swing:    b.SwingAngle(),
		Offset:   b.ConstraintLoc,
	}
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

type Result struct {
	Frames    int
	Time      float64
	MaxImpact float64
	Metrics   map[string]float64
	Errors    []error
}
