// Package physics provides the constrained-body core of the cradle.
//
// A [Body] is one pendulum ball held to a fixed pivot by a point constraint.
// Bodies are integrated with a position Verlet scheme and the constraint is
// relaxed with one Gauss-Seidel step per frame:
//
//	b.ApplyGravity(g)
//	b.Update(dt, dt/lastDt)
//	b.SolveConstraint()
//	b.PostSolveConstraint()
//	b.ClearForces()
//
// Neighbouring bodies form a [Pair]. The [Resolver] runs its phases over the
// whole pair list in a fixed order:
//
//	r.PreSolve(bodies, pairs)
//	r.SolvePositions(bodies, pairs)
//	r.PostSolvePositions(bodies)
//	r.SolveVelocities(bodies, pairs)
//
// # Units
//
// Positions are world units with -Y pointing down. Velocities are per-frame
// displacements, not per-second rates.
package physics
