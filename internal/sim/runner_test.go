package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

type countMetric struct {
	frames int
}

func (m *countMetric) Name() string   { return "count" }
func (m *countMetric) Observe(Frame)  { m.frames++ }
func (m *countMetric) Value() float64 { return float64(m.frames) }
func (m *countMetric) Reset()         { m.frames = 0 }

func TestRunnerRun(t *testing.T) {
	c, _ := New(testSettings())
	r := NewRunner(c)
	r.AddMetric(&countMetric{})

	result, err := r.Run(context.Background(), 120, 1.0/60)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Frames != 120 {
		t.Errorf("expected 120 frames, got %d", result.Frames)
	}
	if result.Metrics["count"] != 120 {
		t.Errorf("expected metric 120, got %f", result.Metrics["count"])
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if c.Running() {
		t.Error("expected runner to stop the cradle it started")
	}
}

func TestRunnerInvalidArgs(t *testing.T) {
	c, _ := New(testSettings())
	r := NewRunner(c)

	tests := []struct {
		name   string
		frames int
		dt     float64
	}{
		{"zero frames", 0, 1.0 / 60},
		{"negative frames", -1, 1.0 / 60},
		{"zero dt", 10, 0},
		{"negative dt", 10, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Run(context.Background(), tt.frames, tt.dt); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunnerCanceled(t *testing.T) {
	c, _ := New(testSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(c).Run(ctx, 100, 1.0/60)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Frames != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestRunnerInvalidState(t *testing.T) {
	c, _ := New(testSettings())
	c.bodies[2].Position[0] = math.NaN()

	result, err := NewRunner(c).Run(context.Background(), 10, 1.0/60)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
	var stepErr *StepError
	if !errors.As(result.Errors[0], &stepErr) || !errors.Is(stepErr, ErrInvalidState) {
		t.Errorf("expected StepError wrapping ErrInvalidState, got %v", result.Errors[0])
	}
	if result.Frames != 0 {
		t.Errorf("expected run to stop at the first frame, got %d", result.Frames)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	c, _ := New(testSettings())
	calls := 0
	err := NewRunner(c).RunWithCallback(context.Background(), 100, 1.0/60, func(f Frame) bool {
		calls++
		return f.Index < 10
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 10 {
		t.Errorf("expected 10 calls, got %d", calls)
	}
}

func TestSweep(t *testing.T) {
	var variants []Settings
	for _, deg := range []float64{30, 45, 60} {
		s := testSettings()
		s.StartingDegree = deg
		variants = append(variants, s)
	}

	results, err := NewSweep(variants, func() []Metric { return []Metric{&countMetric{}} }).
		Run(context.Background(), 60, 1.0/60)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Metrics["count"] != 60 {
			t.Errorf("variant %d: expected 60 frames, got %f", i, r.Metrics["count"])
		}
	}
}

func TestSweepInvalidVariant(t *testing.T) {
	s := testSettings()
	s.Balls = 2
	if _, err := NewSweep([]Settings{testSettings(), s}, nil).Run(context.Background(), 10, 1.0/60); !errors.Is(err, ErrBallCount) {
		t.Errorf("expected ErrBallCount, got %v", err)
	}
}

func TestSweepErrorCancelsSiblings(t *testing.T) {
	const frames = 1000000

	bad := testSettings()
	bad.Balls = 2
	variants := []Settings{testSettings(), bad, testSettings()}

	var (
		mu      sync.Mutex
		counted []*countMetric
	)
	newMetrics := func() []Metric {
		m := &countMetric{}
		mu.Lock()
		counted = append(counted, m)
		mu.Unlock()
		return []Metric{m}
	}

	_, err := NewSweep(variants, newMetrics).Run(context.Background(), frames, 1.0/60)
	if !errors.Is(err, ErrBallCount) {
		t.Fatalf("expected ErrBallCount, got %v", err)
	}
	for i, m := range counted {
		if m.frames >= frames {
			t.Errorf("runner %d: expected early stop, ran all %d frames", i, m.frames)
		}
	}
}
