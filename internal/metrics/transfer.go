package metrics

import (
	"math"

	"github.com/san-kum/cradle/internal/sim"
)

// Transfer records the first frame at which the rightmost ball swings faster
// than the leftmost one. Value is -1 until that happens.
type Transfer struct {
	name  string
	frame int
}

func NewTransfer() *Transfer {
	return &Transfer{name: "transfer_frame", frame: -1}
}

func (t *Transfer) Name() string { return t.name }

func (t *Transfer) Observe(f sim.Frame) {
	if t.frame >= 0 || len(f.Bodies) < 2 {
		return
	}
	left := math.Abs(SwingRate(&f.Bodies[0], f.Dt))
	right := math.Abs(SwingRate(&f.Bodies[len(f.Bodies)-1], f.Dt))
	if right > left {
		t.frame = f.Index
	}
}

func (t *Transfer) Value() float64 {
	return float64(t.frame)
}

// Happened reports whether a crossing has been observed.
func (t *Transfer) Happened() bool {
	return t.frame >= 0
}

func (t *Transfer) Reset() {
	t.frame = -1
}
