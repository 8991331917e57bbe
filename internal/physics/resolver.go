package physics

import "math"

const (
	PairSlop = 0.05

	PositionDampen     = 0.04
	PositionWarming    = 0.8
	FrictionNormalMult = 5.0
)

// Collision is the narrow-phase result for one pair. Normal points from B to A.
type Collision struct {
	Depth       float64
	Penetration Vector3
	Normal      Vector3
	Tangent     Vector3
}

// Pair is a candidate contact between two adjacent bodies, referenced by index
// into the body slice it was built for.
type Pair struct {
	A, B       int
	Collision  Collision
	Separation float64
	Active     bool
	Slop       float64
}

// BuildPairs returns the adjacent pairs (i, i+1) for n bodies.
func BuildPairs(n int) []Pair {
	if n < 2 {
		return nil
	}
	pairs := make([]Pair, n-1)
	for i := range pairs {
		pairs[i] = Pair{A: i, B: i + 1, Slop: PairSlop}
	}
	return pairs
}

// Detect runs the sphere test for the pair and fills in Collision.
func (p *Pair) Detect(bodies []Body) {
	a, b := &bodies[p.A], &bodies[p.B]
	p.Active = a.Collision.Collides(b.Collision)
	p.Collision = Collision{}
	if !p.Active {
		return
	}

	d := a.Collision.Origin.Sub(b.Collision.Origin)
	d[2] = 0
	dist := Distance(d)

	normal := Vec(-1, 0, 0)
	if dist > Epsilon {
		normal = d.Mul(1 / dist)
	}
	depth := a.Collision.Radius + b.Collision.Radius - dist

	p.Collision = Collision{
		Depth:       depth,
		Penetration: normal.Mul(depth),
		Normal:      normal,
		Tangent:     Perp(normal),
	}
}

// Resolver corrects overlap between adjacent bodies in four ordered phases.
// Each phase must complete over every pair before the next one starts.
type Resolver struct {
	impact float64
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Impact is the largest normal impulse applied by the last SolveVelocities.
func (r *Resolver) Impact() float64 {
	return r.impact
}

// Resolve runs all phases in order.
func (r *Resolver) Resolve(bodies []Body, pairs []Pair) {
	r.PreSolve(bodies, pairs)
	r.SolvePositions(bodies, pairs)
	r.PostSolvePositions(bodies)
	r.SolveVelocities(bodies, pairs)
}

// PreSolve detects every pair and counts, per body, how many pairs touch it.
func (r *Resolver) PreSolve(bodies []Body, pairs []Pair) {
	for i := range pairs {
		p := &pairs[i]
		p.Detect(bodies)
		bodies[p.A].TotalContacts++
		bodies[p.B].TotalContacts++
	}
}

// SolvePositions accumulates position impulses for overlapping pairs. Overlap
// within the pair slop is left alone.
func (r *Resolver) SolvePositions(bodies []Body, pairs []Pair) {
	for i := range pairs {
		p := &pairs[i]
		if !p.Active {
			continue
		}
		a, b := &bodies[p.A], &bodies[p.B]

		tempA := b.PositionImpulse.Add(b.Position)
		tempB := b.Position.Sub(p.Collision.Penetration)
		tempC := a.PositionImpulse.Add(tempB)
		p.Separation = p.Collision.Normal.Dot(tempA.Sub(tempC))
	}

	for i := range pairs {
		p := &pairs[i]
		if !p.Active {
			continue
		}
		impulse := p.Separation - p.Slop
		if impulse <= 0 {
			continue
		}
		a, b := &bodies[p.A], &bodies[p.B]
		normal := p.Collision.Normal

		shareA := PositionDampen / float64(max(a.TotalContacts, 1))
		shareB := PositionDampen / float64(max(b.TotalContacts, 1))

		a.PositionImpulse = a.PositionImpulse.Add(normal.Mul(impulse * shareA))
		b.PositionImpulse = b.PositionImpulse.Sub(normal.Mul(impulse * shareB))
	}
}

// PostSolvePositions commits accumulated position impulses into both the
// position and the Verlet history, so the correction does not add velocity.
func (r *Resolver) PostSolvePositions(bodies []Body) {
	for i := range bodies {
		b := &bodies[i]
		b.TotalContacts = 0

		if Distance(b.Impulse) == 0 && Distance(b.PositionImpulse) == 0 {
			continue
		}

		b.Position = b.Position.Add(b.PositionImpulse)
		b.LastPosition = b.LastPosition.Add(b.PositionImpulse)
		b.Collision.Update(b.PositionImpulse)

		if b.PositionImpulse.Dot(b.Velocity) < 0 {
			b.PositionImpulse = zero
		} else {
			b.PositionImpulse = b.PositionImpulse.Mul(PositionWarming)
		}
	}
}

// SolveVelocities refreshes velocities from the corrected positions and applies
// restitution and friction impulses to approaching pairs. The result is written
// back into LastPosition.
func (r *Resolver) SolveVelocities(bodies []Body, pairs []Pair) {
	r.impact = 0

	for i := range bodies {
		b := &bodies[i]
		b.Velocity = b.Position.Sub(b.LastPosition)
		b.AngularVelocity = b.Angle - b.LastAngle
	}

	for i := range pairs {
		p := &pairs[i]
		if !p.Active {
			continue
		}
		a, b := &bodies[p.A], &bodies[p.B]
		normal, tangent := p.Collision.Normal, p.Collision.Tangent

		relative := a.Velocity.Sub(b.Velocity)
		normalVelocity := relative.Dot(normal)
		if normalVelocity >= 0 {
			continue
		}

		invA, invB := a.InverseMass(), b.InverseMass()
		invSum := invA + invB
		restitution := math.Min(a.Restitution, b.Restitution)

		jn := safeDiv(-(1+restitution)*normalVelocity, invSum)

		tangentVelocity := relative.Dot(tangent)
		jt := safeDiv(-tangentVelocity, invSum)
		limit := math.Max(a.Friction, b.Friction) * FrictionNormalMult * jn
		jt = clamp(jt, -limit, limit)

		impulse := normal.Mul(jn).Add(tangent.Mul(jt))
		a.Velocity = a.Velocity.Add(impulse.Mul(invA))
		b.Velocity = b.Velocity.Sub(impulse.Mul(invB))

		if jn > r.impact {
			r.impact = jn
		}
	}

	for i := range bodies {
		b := &bodies[i]
		b.LastPosition = b.Position.Sub(b.Velocity)
		b.Speed = Distance(b.Velocity)
		b.AngularSpeed = math.Abs(b.AngularVelocity)
	}
}
