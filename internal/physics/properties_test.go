package physics

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func randomVec(r *rand.Rand, scale float64) Vector3 {
	return Vec((r.Float64()*2-1)*scale, (r.Float64()*2-1)*scale, 0)
}

var _ = Describe("Body", func() {
	var r *rand.Rand

	BeforeEach(func() {
		r = rand.New(rand.NewSource(GinkgoRandomSeed()))
	})

	It("keeps the constraint torque within bounds for arbitrary states", func() {
		for i := 0; i < 2000; i++ {
			b := NewBody(randomVec(r, 3), r.Float64()*5, 0, 0.25, 0.5+r.Float64()*2)
			b.Position = randomVec(r, 5)
			b.LastPosition = b.Position.Sub(randomVec(r, 0.5))
			b.Angle = (r.Float64()*2 - 1) * math.Pi
			b.LastAngle = b.Angle - (r.Float64()*2-1)*0.5
			b.ConstraintPoint = randomVec(r, 1)
			if i%3 == 0 {
				b.Inertia = 1e-3
			}

			b.SolveConstraint()

			Expect(b.Torque).To(BeNumerically(">=", -MaxConstraintTorque))
			Expect(b.Torque).To(BeNumerically("<=", MaxConstraintTorque))
			Expect(b.IsFinite()).To(BeTrue())
		}
	})

	It("returns to the same state when initialized twice", func() {
		for i := 0; i < 100; i++ {
			pivot := randomVec(r, 3)
			mass, angle := r.Float64()*5, r.Float64()
			radius, arm := r.Float64(), 0.5+r.Float64()

			a := NewBody(pivot, mass, angle, radius, arm)
			b := NewBody(pivot, mass, angle, radius, arm)
			b.Displace(r.Float64())
			b.ApplyGravity(9.81)
			b.Update(1.0/60, 1)
			b.Init(pivot, mass, angle, radius, arm)

			Expect(*b).To(Equal(*a))
		}
	})

	It("reduces the constraint error from a stretched start", func() {
		b := NewBody(Vec(0, 0, 0), 1, 0, 0.25, 1.5)
		b.Displace(0.3)
		b.Position = b.Position.Mul(1.2)
		b.LastPosition = b.Position

		errs := make([]float64, 0, 120)
		for i := 0; i < 120; i++ {
			b.ApplyGravity(9.81)
			b.Update(1.0/60, 1)
			b.SolveConstraint()
			b.PostSolveConstraint()
			b.ClearForces()
			errs = append(errs, b.ConstraintError())
		}
		Expect(errs[len(errs)-1]).To(BeNumerically("<", errs[0]))
	})
})

var _ = Describe("Resolver", func() {
	DescribeTable("counts contacts along a chain",
		func(k int) {
			bodies := row(k, 0.25, 0.5)
			pairs := BuildPairs(k)
			Expect(pairs).To(HaveLen(k - 1))

			NewResolver().PreSolve(bodies, pairs)

			Expect(bodies[0].TotalContacts).To(Equal(1))
			Expect(bodies[k-1].TotalContacts).To(Equal(1))
			for i := 1; i < k-1; i++ {
				Expect(bodies[i].TotalContacts).To(Equal(2), "body %d", i)
			}
		},
		Entry("five balls", 5),
		Entry("seven balls", 7),
		Entry("eleven balls", 11),
	)

	It("conserves momentum through an elastic chain", func() {
		bodies := row(5, 0.25, 0.5)
		bodies[0].LastPosition = bodies[0].Position.Sub(Vec(0.04, 0, 0))
		pairs := BuildPairs(5)

		NewResolver().Resolve(bodies, pairs)

		total := 0.0
		for _, b := range bodies {
			total += b.Mass * b.Velocity.X()
		}
		Expect(total).To(BeNumerically("~", 0.04, 1e-12))
		Expect(bodies[4].Velocity.X()).To(BeNumerically("~", 0.04, 1e-12))
	})

	It("leaves a resting row untouched", func() {
		bodies := row(5, 0.25, 0.5)
		before := make([]Vector3, len(bodies))
		for i, b := range bodies {
			before[i] = b.Position
		}

		NewResolver().Resolve(bodies, BuildPairs(5))

		for i, b := range bodies {
			Expect(b.Position).To(Equal(before[i]))
			Expect(b.Velocity).To(Equal(zero))
		}
	})
})
