package sim

import (
	"context"
	"sync"
)

// Sweep runs independent cradles, one per settings variant, each on its own
// goroutine. Every cradle is still stepped single-threaded.
type Sweep struct {
	variants   []Settings
	newMetrics func() []Metric
}

func NewSweep(variants []Settings, newMetrics func() []Metric) *Sweep {
	return &Sweep{variants: variants, newMetrics: newMetrics}
}

// Run steps every variant for frames frames. The first setup or run error
// cancels the remaining variants and is returned.
func (s *Sweep) Run(ctx context.Context, frames int, dt float64) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(s.variants))

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for i := range s.variants {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			c, err := New(s.variants[idx])
			if err != nil {
				fail(err)
				return
			}
			r := NewRunner(c)
			if s.newMetrics != nil {
				for _, m := range s.newMetrics() {
					r.AddMetric(m)
				}
			}

			res, err := r.Run(ctx, frames, dt)
			if err != nil {
				fail(err)
				return
			}
			results[idx] = res
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
