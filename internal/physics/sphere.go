package physics

// BoundingSphere is a body's planar collision proxy. Z is ignored.
type BoundingSphere struct {
	Origin Vector3
	Radius float64
}

// Collides reports whether the planar distance between origins is no more than
// the sum of both radii.
func (s BoundingSphere) Collides(other BoundingSphere) bool {
	dx := s.Origin.X() - other.Origin.X()
	dy := s.Origin.Y() - other.Origin.Y()
	distSq := dx*dx + dy*dy
	minDist := s.Radius + other.Radius
	return distSq <= minDist*minDist
}

// Update advances the origin by v.
func (s *BoundingSphere) Update(v Vector3) {
	s.Origin = s.Origin.Add(v)
}
