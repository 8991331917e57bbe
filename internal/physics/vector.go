package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is the value type used for all body state.
type Vector3 = mgl64.Vec3

// Epsilon is the smallest magnitude used as a divisor anywhere in the solver.
const Epsilon = 1e-9

var zero = Vector3{0, 0, 0}

func Vec(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

// Distance returns the length of v.
func Distance(v Vector3) float64 {
	return v.Len()
}

// Perp returns v rotated a quarter turn counter-clockwise in the xy plane.
func Perp(v Vector3) Vector3 {
	return Vector3{-v.Y(), v.X(), 0}
}

// Cross2 is the z component of a × b.
func Cross2(a, b Vector3) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// Rotate turns v about the z axis by angle radians.
func Rotate(v Vector3, angle float64) Vector3 {
	sin, cos := math.Sincos(angle)
	return Vector3{
		v.X()*cos - v.Y()*sin,
		v.X()*sin + v.Y()*cos,
		v.Z(),
	}
}

// IsFinite reports whether every component is neither NaN nor Inf.
func IsFinite(v Vector3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func safeDiv(num, den float64) float64 {
	if math.Abs(den) < Epsilon {
		if den < 0 {
			den = -Epsilon
		} else {
			den = Epsilon
		}
	}
	return num / den
}
