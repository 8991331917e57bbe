package physics

import "math"

const (
	DefaultInertia     = 99999.0
	DefaultRestitution = 1.0
	DefaultFriction    = 0.0
	DefaultFrictionAir = 0.001
	DefaultSlop        = 0.01

	// MaxConstraintTorque bounds the angular correction of a single
	// SolveConstraint call.
	MaxConstraintTorque = 0.01
)

// Body is one pendulum ball hanging from a fixed pivot.
//
// Linear quantities are in world units, velocities are per-frame displacements
// as produced by the Verlet scheme. Down is -Y.
type Body struct {
	Collision BoundingSphere

	Angle           float64
	LastAngle       float64
	AngularVelocity float64
	AngularSpeed    float64
	Torque          float64
	Speed           float64

	Position          Vector3
	LastPosition      Vector3
	Force             Vector3
	Velocity          Vector3
	Acceleration      Vector3
	Impulse           Vector3
	PositionImpulse   Vector3
	ConstraintImpulse Vector3

	ConstraintLoc          Vector3
	ConstraintLen          float64
	ConstraintAngle        float64
	ConstraintImpulseAngle float64
	// ConstraintPoint is the string attachment in body space, relative to Position.
	ConstraintPoint Vector3

	Mass        float64
	Inertia     float64
	Restitution float64
	Friction    float64
	FrictionAir float64
	Slop        float64

	TotalContacts int
}

// NewBody returns an initialized body.
func NewBody(pivot Vector3, mass, restAngle, radius, armLength float64) *Body {
	b := &Body{}
	b.Init(pivot, mass, restAngle, radius, armLength)
	return b
}

// Init resets the body to hang at rest armLength below pivot. Calling it again
// with the same arguments yields the same state.
func (b *Body) Init(pivot Vector3, mass, restAngle, radius, armLength float64) {
	origin := pivot.Sub(Vec(0, armLength, 0))

	*b = Body{
		Collision: BoundingSphere{Origin: origin, Radius: math.Max(radius, 0)},

		Angle:     restAngle,
		LastAngle: restAngle,

		Position:     origin,
		LastPosition: origin,

		ConstraintLoc:   pivot,
		ConstraintLen:   armLength,
		ConstraintAngle: restAngle,

		Mass:        mass,
		Inertia:     DefaultInertia,
		Restitution: DefaultRestitution,
		Friction:    DefaultFriction,
		FrictionAir: DefaultFrictionAir,
		Slop:        DefaultSlop,
	}
}

// Displace moves the body along its arc to swing angle theta (radians, positive
// towards +X) with zero velocity.
func (b *Body) Displace(theta float64) {
	sin, cos := math.Sincos(theta)
	p := b.ConstraintLoc.Add(Vec(b.ConstraintLen*sin, -b.ConstraintLen*cos, 0))
	b.Position = p
	b.LastPosition = p
	b.Collision.Origin = p
	b.Velocity = zero
	b.Speed = 0
}

// SwingAngle is the pendulum angle from the vertical through the pivot.
func (b *Body) SwingAngle() float64 {
	d := b.Position.Sub(b.ConstraintLoc)
	return math.Atan2(d.X(), -d.Y())
}

func (b *Body) InverseMass() float64 {
	return safeDiv(1, b.Mass)
}

func (b *Body) InverseInertia() float64 {
	return safeDiv(1, b.Inertia)
}

// ApplyGravity adds the weight of the body to Force. Call once per frame.
func (b *Body) ApplyGravity(g float64) {
	b.Force[1] -= b.Mass * g
}

// Update integrates one frame. correction is deltaTime/lastDeltaTime.
func (b *Body) Update(deltaTime, correction float64) {
	dtSq := deltaTime * deltaTime
	damping := 1 - b.FrictionAir

	lastVelocity := b.Position.Sub(b.LastPosition)
	b.Acceleration = b.Force.Mul(b.InverseMass())
	b.Velocity = lastVelocity.Mul(damping * correction).Add(b.Acceleration.Mul(dtSq))
	b.LastPosition = b.Position
	b.Position = b.Position.Add(b.Velocity)

	b.AngularVelocity = (b.Angle - b.LastAngle) * damping * correction
	b.LastAngle = b.Angle
	b.Angle += b.AngularVelocity

	b.Speed = Distance(b.Velocity)
	b.AngularSpeed = math.Abs(b.AngularVelocity)

	b.Collision.Update(b.Velocity)
}

// SolveConstraint relaxes the pivot constraint once. Convergence happens
// across frames, not inside a call.
func (b *Body) SolveConstraint() {
	pointA := Rotate(b.ConstraintPoint, b.Angle-b.ConstraintAngle)
	pointAWorld := b.Position.Add(pointA)

	delta := pointAWorld.Sub(b.ConstraintLoc)
	currentLength := math.Max(Distance(delta), Epsilon)

	difference := (currentLength - b.ConstraintLen) / currentLength
	normal := delta.Mul(1 / currentLength)
	corrective := delta.Mul(difference * 0.5)

	offsetA := pointAWorld.Sub(b.Position).Add(corrective)

	b.Velocity = b.Position.Sub(b.LastPosition)
	b.AngularVelocity = b.Angle - b.LastAngle

	invInertia := b.InverseInertia()
	velocityPointA := b.Velocity.Add(Perp(offsetA).Mul(b.AngularVelocity))
	oAn := offsetA.Dot(normal)
	denom := b.InverseMass() + invInertia*oAn*oAn

	// the pivot is fixed, so the relative velocity is just the negated point velocity
	normalImpulse := safeDiv(normal.Dot(velocityPointA.Mul(-1)), denom)
	if normalImpulse > 0 {
		normalImpulse = 0
	}
	normalVelocity := normal.Mul(normalImpulse)

	torque := Cross2(offsetA, normalVelocity) * invInertia
	torque = clamp(torque, -MaxConstraintTorque, MaxConstraintTorque)
	b.Torque = torque

	b.ConstraintImpulse = b.ConstraintImpulse.Sub(corrective)
	b.ConstraintImpulseAngle += torque

	b.Position = b.Position.Sub(corrective)
	b.Collision.Update(corrective.Mul(-1))
	b.Angle += torque
}

// ConstraintError is the distance between the constrained point and the
// required arm length.
func (b *Body) ConstraintError() float64 {
	pointA := Rotate(b.ConstraintPoint, b.Angle-b.ConstraintAngle)
	return math.Abs(Distance(b.Position.Add(pointA).Sub(b.ConstraintLoc)) - b.ConstraintLen)
}

// PostSolveConstraint exposes the constraint impulse to the resolver. Only the
// out-of-plane component is kept.
func (b *Body) PostSolveConstraint() {
	b.Impulse = b.ConstraintImpulse
	b.Impulse[0] = 0
	b.Impulse[1] = 0
}

// ClearForces zeroes the per-frame accumulators and pins the body to z = 0.
func (b *Body) ClearForces() {
	b.Force = zero
	b.Torque = 0
	b.Position[2] = 0
}

// IsFinite reports whether position and angle are free of NaN and Inf.
func (b *Body) IsFinite() bool {
	if math.IsNaN(b.Angle) || math.IsInf(b.Angle, 0) {
		return false
	}
	return IsFinite(b.Position) && IsFinite(b.LastPosition)
}
