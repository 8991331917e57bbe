package sim

import (
	"context"
	"fmt"
)

// Runner steps a cradle headlessly at a fixed timestep.
type Runner struct {
	cradle  *Cradle
	metrics []Metric
}

func NewRunner(c *Cradle) *Runner {
	return &Runner{
		cradle:  c,
		metrics: make([]Metric, 0),
	}
}

func (r *Runner) AddMetric(m Metric) { r.metrics = append(r.metrics, m) }

// Run advances the cradle by frames steps of dt. The cradle is started if it
// is stopped and stopped again afterwards. A non-finite body ends the run with
// a StepError in Result.Errors.
func (r *Runner) Run(ctx context.Context, frames int, dt float64) (*Result, error) {
	if err := validateRun(frames, dt); err != nil {
		return nil, err
	}

	c := r.cradle
	if !c.Running() {
		c.Toggle()
		defer c.Toggle()
	}

	result := &Result{
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		c.Step(dt)
		if err := c.Validate(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}

		f := c.Frame()
		for _, m := range r.metrics {
			m.Observe(f)
		}
		if f.Impact > result.MaxImpact {
			result.MaxImpact = f.Impact
		}
		result.Frames++
		result.Time = c.Elapsed()
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// RunWithCallback steps until callback returns false or frames are exhausted.
func (r *Runner) RunWithCallback(ctx context.Context, frames int, dt float64, callback func(Frame) bool) error {
	if err := validateRun(frames, dt); err != nil {
		return err
	}

	c := r.cradle
	if !c.Running() {
		c.Toggle()
		defer c.Toggle()
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.Step(dt)
		if err := c.Validate(); err != nil {
			return err
		}
		if !callback(c.Frame()) {
			return nil
		}
	}
	return nil
}

func validateRun(frames int, dt float64) error {
	if frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", frames)
	}
	if !(dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", dt)
	}
	return nil
}
