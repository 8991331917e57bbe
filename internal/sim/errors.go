package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a setting outside its supported range.
	ErrInvalidConfig = errors.New("cradle: invalid configuration")

	// ErrBallCount indicates a ball count outside [MinBalls, MaxBalls].
	ErrBallCount = errors.New("cradle: ball count out of range")

	// ErrSideCount indicates more displaced balls than the row holds.
	ErrSideCount = errors.New("cradle: displaced ball count out of range")

	// ErrRunning indicates a reconfiguration attempt while the cradle is running.
	ErrRunning = errors.New("cradle: cannot reconfigure while running")

	// ErrInvalidState indicates a body with NaN or Inf in its position or angle.
	ErrInvalidState = errors.New("cradle: invalid state (NaN or Inf detected)")
)

// ConfigError names the setting that failed validation.
type ConfigError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%v", e.Wrapped, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// StepError wraps an error with the frame it happened on.
type StepError struct {
	Frame   int
	Time    float64
	Body    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f) body %d: %v", e.Frame, e.Time, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
