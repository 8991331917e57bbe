package metrics

import (
	"github.com/san-kum/cradle/internal/sim"
)

// Stability is the fraction of frames in which every arm stays within
// threshold of its rest length.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	maxError   float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	violated := false
	for i := range f.Bodies {
		err := f.Bodies[i].ConstraintError()
		if err > s.maxError {
			s.maxError = err
		}
		if err > s.threshold {
			violated = true
		}
	}
	if violated {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// MaxError is the largest arm length error seen so far.
func (s *Stability) MaxError() float64 {
	return s.maxError
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.maxError = 0
}
