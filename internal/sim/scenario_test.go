package sim

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cradle", func() {
	var c *Cradle

	BeforeEach(func() {
		var err error
		c, err = New(testSettings())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("state machine", func() {
		It("starts stopped and toggles", func() {
			Expect(c.State()).To(Equal(Stopped))
			Expect(c.Toggle()).To(Equal(Running))
			Expect(c.Toggle()).To(Equal(Stopped))
		})

		It("rejects every reconfiguration while running", func() {
			c.Toggle()
			before := c.Bodies()

			Expect(c.SetBallCount(7)).To(MatchError(ErrRunning))
			Expect(c.SetStartingAngles(45, true, 2, false, 0)).To(MatchError(ErrRunning))
			Expect(c.Reset()).To(MatchError(ErrRunning))
			Expect(c.Configure(testSettings())).To(MatchError(ErrRunning))

			Expect(c.Bodies()).To(Equal(before))
			Expect(c.Settings()).To(Equal(testSettings()))
		})
	})

	DescribeTable("rebuilding the row",
		func(from, to int) {
			Expect(c.SetBallCount(from)).To(Succeed())
			Expect(c.SetBallCount(to)).To(Succeed())

			Expect(c.Bodies()).To(HaveLen(to))
			pairs := c.Pairs()
			Expect(pairs).To(HaveLen(to - 1))
			for i, p := range pairs {
				Expect(p.A).To(Equal(i))
				Expect(p.B).To(Equal(i + 1))
				Expect(p.B).To(BeNumerically("<", to))
			}
		},
		Entry("grow 5 to 11", 5, 11),
		Entry("shrink 11 to 5", 11, 5),
		Entry("grow 6 to 9", 6, 9),
		Entry("same count", 7, 7),
	)

	Context("five balls with the leftmost raised 30 degrees", func() {
		const frames = 1000
		dt := 1.0 / 60

		It("stays finite and hands the swing to the rightmost ball", func() {
			c.Toggle()

			rightPeak := 0.0
			for i := 0; i < frames; i++ {
				c.Step(dt)
				Expect(c.Validate()).To(Succeed(), "frame %d", i)

				bodies := c.Bodies()
				rightPeak = math.Max(rightPeak, bodies[len(bodies)-1].SwingAngle())
			}

			Expect(c.FrameIndex()).To(Equal(frames))
			Expect(rightPeak).To(BeNumerically(">", 15*math.Pi/180))
		})

		It("leaves the rightmost ball at rest until the first impact", func() {
			c.Toggle()

			for i := 0; i < 10; i++ {
				c.Step(dt)
			}
			bodies := c.Bodies()
			Expect(bodies[0].SwingAngle()).To(BeNumerically(">", -30*math.Pi/180))
			Expect(bodies[len(bodies)-1].SwingAngle()).To(BeNumerically("~", 0, 1e-9))
		})
	})
})
