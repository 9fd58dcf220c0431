package metrics

import (
	"math"

	"github.com/san-kum/linkage/internal/trace"
)

// Excursion is the swing of the fixed link: max minus min rocker angle,
// unwrapped so a crossing of ±π does not read as a full turn.
type Excursion struct {
	min, max float64
	last     float64
	acc      float64
	seen     bool
}

func NewExcursion() *Excursion {
	return &Excursion{}
}

func (e *Excursion) Name() string {
	return "rocker_excursion"
}

func (e *Excursion) Observe(f trace.Frame) {
	a := f.Pose.RockerAngle
	if !e.seen {
		e.acc, e.min, e.max = a, a, a
		e.last = a
		e.seen = true
		return
	}
	e.acc += math.Remainder(a-e.last, 2*math.Pi)
	e.last = a
	e.min = math.Min(e.min, e.acc)
	e.max = math.Max(e.max, e.acc)
}

func (e *Excursion) Value() float64 {
	if !e.seen {
		return 0
	}
	return e.max - e.min
}

func (e *Excursion) Reset() {
	*e = Excursion{}
}
