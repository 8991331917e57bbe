package gui

import (
	"github.com/go-gl/mathgl/mgl64"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/cradle/internal/physics"
)

func toRL(v physics.Vector3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

// RenderCradle draws the frame, strings and spheres of the current state.
func (a *App) RenderCradle() {
	transforms := a.Cradle.Transforms()
	if len(transforms) == 0 {
		return
	}
	p := a.Cradle.Settings().Physics
	radius := float32(p.Radius)

	first, last := transforms[0].Offset, transforms[len(transforms)-1].Offset
	rl.DrawCube(toRL(first.Add(last).Mul(0.5)), float32(last.X()-first.X())+2*radius, radius/4, radius, ColGrid)

	for _, t := range transforms {
		world := t.World(mgl64.Ident4())
		center := world.Col(3).Vec3()
		// a point on the surface shows the body's own rotation
		marker := world.Mul4x1(mgl64.Vec4{0, -p.Radius, 0, 1}).Vec3()

		rl.DrawLine3D(toRL(t.Offset), toRL(center), ColString)
		rl.DrawSphere(toRL(center), radius, ColBall)
		rl.DrawSphere(toRL(marker), radius/8, ColTextDim)
		rl.DrawSphere(toRL(t.Offset), radius/6, ColText)
	}
}
