package metrics

import "github.com/san-kum/cradle/internal/sim"

// Collisions counts frames whose strongest contact impulse exceeds threshold.
type Collisions struct {
	name      string
	threshold float64
	count     int
}

func NewCollisions(threshold float64) *Collisions {
	return &Collisions{
		name:      "collisions",
		threshold: threshold,
	}
}

func (c *Collisions) Name() string {
	return c.name
}

func (c *Collisions) Observe(f sim.Frame) {
	if f.Impact > c.threshold {
		c.count++
	}
}

func (c *Collisions) Value() float64 {
	return float64(c.count)
}

func (c *Collisions) Reset() {
	c.count = 0
}
