// Package automation runs scripted scenarios and starting-angle sweeps.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cradle/internal/config"
	"github.com/san-kum/cradle/internal/logger"
	"github.com/san-kum/cradle/internal/metrics"
	"github.com/san-kum/cradle/internal/sim"
	"github.com/san-kum/cradle/internal/trace"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (classic when empty) and applies any
// fields that are set.
type ScenarioStep struct {
	Preset         string   `yaml:"preset"`
	Duration       *float64 `yaml:"duration"`
	Dt             *float64 `yaml:"dt"`
	Balls          *int     `yaml:"balls"`
	StartingDegree *float64 `yaml:"starting_degree"`
	UseLeft        *bool    `yaml:"use_left"`
	LeftCount      *int     `yaml:"left_count"`
	UseRight       *bool    `yaml:"use_right"`
	RightCount     *int     `yaml:"right_count"`
	Trace          string   `yaml:"trace"`
}

// StepResult is the outcome of one scenario step. Trace is the CSV path the
// step was exported to, if any.
type StepResult struct {
	Step   int
	Trace  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}
	return &scenario, nil
}

// Config resolves the step into a validated configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "classic"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if s.Duration != nil {
		cfg.Duration = *s.Duration
	}
	if s.Dt != nil {
		cfg.Dt = *s.Dt
	}
	if s.Balls != nil {
		cfg.Balls = *s.Balls
	}
	if s.StartingDegree != nil {
		cfg.StartingDegree = *s.StartingDegree
	}
	if s.UseLeft != nil {
		cfg.UseLeft = *s.UseLeft
	}
	if s.LeftCount != nil {
		cfg.LeftCount = *s.LeftCount
	}
	if s.UseRight != nil {
		cfg.UseRight = *s.UseRight
	}
	if s.RightCount != nil {
		cfg.RightCount = *s.RightCount
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultMetrics is the metric set recorded for scripted runs.
func DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewStability(1e-3),
		metrics.NewCollisions(1e-4),
		metrics.NewTransfer(),
	}
}

// RunScenario executes all steps in order. Steps with a trace path have their
// recorded frames exported there as CSV.
func RunScenario(ctx context.Context, scenario *Scenario, log *logger.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Printf("step %d/%d: %d balls at %.0f degrees", i+1, len(scenario.Steps), cfg.Balls, cfg.StartingDegree)

		c, err := sim.New(cfg.Settings())
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		rec := trace.NewRecorder()
		c.AddObserver(rec)

		runner := sim.NewRunner(c)
		for _, m := range DefaultMetrics() {
			runner.AddMetric(m)
		}

		result, err := runner.Run(ctx, cfg.Frames(), cfg.Dt)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		if step.Trace != "" {
			if err := exportTrace(step.Trace, rec); err != nil {
				return results, fmt.Errorf("step %d trace: %w", i+1, err)
			}
		}
		results = append(results, StepResult{Step: i + 1, Trace: step.Trace, Result: result})
	}

	return results, nil
}

func exportTrace(path string, rec *trace.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rec.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DegreeSweep runs the same configuration at evenly spaced starting angles.
type DegreeSweep struct {
	Base     *config.Config
	MinAngle float64
	MaxAngle float64
	NumSteps int
}

// SweepResult holds results from one angle of a sweep.
type SweepResult struct {
	Degree        float64
	TransferFrame int
	EnergyDrift   float64
	Collisions    int
	MaxImpact     float64
	Errors        int
}

// Angles returns the starting angles the sweep will run.
func (s *DegreeSweep) Angles() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.MinAngle}
	}
	step := (s.MaxAngle - s.MinAngle) / float64(s.NumSteps-1)
	out := make([]float64, s.NumSteps)
	for i := range out {
		out[i] = s.MinAngle + float64(i)*step
	}
	return out
}

// RunSweep executes a sweep with one cradle per angle running concurrently.
func RunSweep(ctx context.Context, sweep *DegreeSweep) ([]SweepResult, error) {
	angles := sweep.Angles()
	variants := make([]sim.Settings, len(angles))
	for i, a := range angles {
		s := sweep.Base.Settings()
		s.StartingDegree = a
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("angle %.1f: %w", a, err)
		}
		variants[i] = s
	}

	newMetrics := func() []sim.Metric {
		return []sim.Metric{metrics.NewTransfer(), metrics.NewEnergyDrift(), metrics.NewCollisions(1e-4)}
	}
	runs, err := sim.NewSweep(variants, newMetrics).Run(ctx, sweep.Base.Frames(), sweep.Base.Dt)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{
			Degree:        angles[i],
			TransferFrame: int(r.Metrics["transfer_frame"]),
			EnergyDrift:   r.Metrics["energy_drift"],
			Collisions:    int(r.Metrics["collisions"]),
			MaxImpact:     r.MaxImpact,
			Errors:        len(r.Errors),
		}
	}
	return results, nil
}
