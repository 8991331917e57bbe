package sim

import (
	"math"

	"github.com/san-kum/cradle/internal/physics"
)

// Cradle owns the body row and its pairs and advances them one frame at a time.
// It is not safe for concurrent use.
type Cradle struct {
	settings Settings
	state    State

	bodies   []physics.Body
	pairs    []physics.Pair
	resolver *physics.Resolver

	frame  int
	time   float64
	lastDt float64

	observers []Observer
}

// New validates settings and builds a stopped cradle.
func New(s Settings) (*Cradle, error) {
	c := &Cradle{resolver: physics.NewResolver()}
	if err := c.Configure(s); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cradle) AddObserver(o Observer) { c.observers = append(c.observers, o) }

func (c *Cradle) Settings() Settings { return c.settings }
func (c *Cradle) State() State       { return c.state }
func (c *Cradle) Running() bool      { return c.state == Running }
func (c *Cradle) FrameIndex() int    { return c.frame }
func (c *Cradle) Elapsed() float64   { return c.time }
func (c *Cradle) Impact() float64    { return c.resolver.Impact() }

// Toggle switches between Stopped and Running and returns the new state.
func (c *Cradle) Toggle() State {
	if c.state == Running {
		c.state = Stopped
	} else {
		c.state = Running
	}
	return c.state
}

// Configure replaces the settings and rebuilds every body and pair. An invalid
// configuration, or a call while running, leaves the cradle untouched.
func (c *Cradle) Configure(s Settings) error {
	if c.state == Running {
		return ErrRunning
	}
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	c.rebuild()
	return nil
}

// SetBallCount rebuilds the row with n balls. Displaced counts larger than the
// new row are lowered to fit instead of failing, so shrinking the row never
// depends on the side counts being edited first. An out-of-range n is rejected
// and leaves the cradle untouched.
func (c *Cradle) SetBallCount(n int) error {
	s := c.settings
	s.Balls = n
	s.LeftCount = min(s.LeftCount, max(n, 0))
	s.RightCount = min(s.RightCount, max(n, 0))
	if s.UseLeft && s.UseRight && s.LeftCount+s.RightCount > n {
		s.RightCount = max(n-s.LeftCount, 0)
	}
	return c.Configure(s)
}

// SetStartingAngles changes which balls start displaced and by how much.
func (c *Cradle) SetStartingAngles(degree float64, useLeft bool, leftCount int, useRight bool, rightCount int) error {
	s := c.settings
	s.StartingDegree = degree
	s.UseLeft, s.LeftCount = useLeft, leftCount
	s.UseRight, s.RightCount = useRight, rightCount
	return c.Configure(s)
}

// Reset puts every ball back at its starting angle.
func (c *Cradle) Reset() error {
	return c.Configure(c.settings)
}

func (c *Cradle) rebuild() {
	s := c.settings
	p := s.Physics
	spacing := p.Spacing()
	first := -float64(s.Balls-1) / 2 * spacing

	bodies := make([]physics.Body, s.Balls)
	for i := range bodies {
		pivot := physics.Vec(first+float64(i)*spacing, 0, 0)
		bodies[i].Init(pivot, p.Mass, 0, p.Radius, p.ArmLength)
	}

	theta := s.StartingDegree * math.Pi / 180
	if s.UseLeft {
		for i := 0; i < s.LeftCount; i++ {
			bodies[i].Displace(-theta)
		}
	}
	if s.UseRight {
		for i := s.Balls - s.RightCount; i < s.Balls; i++ {
			bodies[i].Displace(theta)
		}
	}

	c.bodies = bodies
	c.pairs = physics.BuildPairs(len(bodies))
	c.resolver = physics.NewResolver()
	c.frame = 0
	c.time = 0
	c.lastDt = 0
}

// Step advances one frame. It does nothing while stopped or when dt <= 0.
func (c *Cradle) Step(dt float64) {
	if c.state != Running || !(dt > 0) {
		return
	}
	if limit := c.settings.Physics.MaxDeltaTime; limit > 0 && dt > limit {
		dt = limit
	}
	correction := 1.0
	if c.lastDt > 0 {
		correction = dt / c.lastDt
	}

	g := c.settings.Physics.Gravity
	for i := range c.bodies {
		b := &c.bodies[i]
		b.ApplyGravity(g)
		b.Update(dt, correction)
		b.SolveConstraint()
		b.PostSolveConstraint()
		b.ClearForces()
	}
	c.resolver.Resolve(c.bodies, c.pairs)

	c.lastDt = dt
	c.frame++
	c.time += dt

	if len(c.observers) > 0 {
		f := c.Frame()
		for _, o := range c.observers {
			o.OnFrame(f)
		}
	}
}

// Frame snapshots the current state.
func (c *Cradle) Frame() Frame {
	return Frame{
		Index:   c.frame,
		Time:    c.time,
		Dt:      c.lastDt,
		Gravity: c.settings.Physics.Gravity,
		Impact:  c.resolver.Impact(),
		Bodies:  c.Bodies(),
	}
}

// Transforms returns one transform per body in creation order.
func (c *Cradle) Transforms() []Transform {
	out := make([]Transform, len(c.bodies))
	for i := range c.bodies {
		out[i] = transformOf(&c.bodies[i])
	}
	return out
}

// Bodies returns a copy of the body row.
func (c *Cradle) Bodies() []physics.Body {
	out := make([]physics.Body, len(c.bodies))
	copy(out, c.bodies)
	return out
}

// Pairs returns a copy of the pair list.
func (c *Cradle) Pairs() []physics.Pair {
	out := make([]physics.Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

// Validate reports the first body whose state is no longer finite.
func (c *Cradle) Validate() error {
	for i := range c.bodies {
		if !c.bodies[i].IsFinite() {
			return &StepError{Frame: c.frame, Time: c.time, Body: i, Wrapped: ErrInvalidState}
		}
	}
	return nil
}
