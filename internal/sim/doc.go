// Package sim drives a row of pendulum bodies through the per-frame solve
// pipeline.
//
// A [Cradle] owns the bodies and their adjacent pairs. It starts Stopped;
// while Stopped it may be reconfigured, and while Running each call to
// [Cradle.Step] advances exactly one frame:
//
//	c, err := sim.New(settings)
//	c.Toggle()
//	for running {
//		c.Step(dt)
//		draw(c.Transforms())
//	}
//
// [Runner] wraps the same loop for headless, fixed-step runs with metrics, and
// [Sweep] runs several independent cradles side by side.
package sim
