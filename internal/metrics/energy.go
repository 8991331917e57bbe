package metrics

import (
	"math"

	"github.com/san-kum/cradle/internal/physics"
	"github.com/san-kum/cradle/internal/sim"
)

// BodyEnergy returns the kinetic and potential energy of one body. Potential
// energy is measured from the bottom of the arc, velocity is converted from
// per-frame displacement using dt.
func BodyEnergy(b *physics.Body, gravity, dt float64) (ke, pe float64) {
	if dt > 0 {
		v := physics.Distance(b.Velocity) / dt
		ke = 0.5 * b.Mass * v * v
	}
	rest := b.ConstraintLoc.Y() - b.ConstraintLen
	pe = b.Mass * gravity * (b.Position.Y() - rest)
	return ke, pe
}

// TotalEnergy sums the mechanical energy of every body in the frame.
func TotalEnergy(f sim.Frame) float64 {
	total := 0.0
	for i := range f.Bodies {
		ke, pe := BodyEnergy(&f.Bodies[i], f.Gravity, f.Dt)
		total += ke + pe
	}
	return total
}

// SwingRate is the angular velocity of the body about its pivot in rad/s.
func SwingRate(b *physics.Body, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	r := b.Position.Sub(b.ConstraintLoc)
	lenSq := r.Dot(r)
	if lenSq < physics.Epsilon {
		return 0
	}
	return physics.Cross2(r, b.Velocity) / lenSq / dt
}

type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f sim.Frame) {
	e.totalEnergy += TotalEnergy(f)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the first observed energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := TotalEnergy(f)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
