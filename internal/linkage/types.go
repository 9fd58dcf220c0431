package linkage

import (
	"fmt"
	"sort"
)

// Crank is the driving link. Angle is in radians and RPM may be zero or
// negative for reverse rotation.
type Crank struct {
	Pivot  Point
	Length float64
	Angle  float64
	RPM    float64
}

// End returns the crank tip for the given angle.
func (c Crank) End(angle float64) Point {
	return c.Pivot.Add(Polar(angle, c.Length))
}

// FixedLink is the ground-side link: a stationary pivot and the length to
// the coupler apex.
type FixedLink struct {
	Pivot  Point
	Length float64
}

// ConnectingLink joins the crank end to the fixed link's free end.
type ConnectingLink struct {
	Length float64
}

// Mechanism is the immutable geometry of a four-bar.
type Mechanism struct {
	Crank Crank
	Fixed FixedLink
	Link  ConnectingLink
}

// Validate rejects non-positive lengths and non-finite values.
func (m Mechanism) Validate() error {
	lengths := []struct {
		field string
		v     float64
	}{
		{"crank.length", m.Crank.Length},
		{"fixed.length", m.Fixed.Length},
		{"link.length", m.Link.Length},
	}
	for _, l := range lengths {
		if !isFinite(l.v) {
			return &ParameterError{Field: l.field, Value: l.v, Wrapped: ErrNonFinite}
		}
		if l.v <= 0 {
			return &ParameterError{Field: l.field, Value: l.v, Wrapped: ErrNonPositiveLength}
		}
	}

	finite := []struct {
		field string
		v     float64
	}{
		{"crank.x", m.Crank.Pivot.X},
		{"crank.y", m.Crank.Pivot.Y},
		{"crank.angle", m.Crank.Angle},
		{"crank.rpm", m.Crank.RPM},
		{"fixed.x", m.Fixed.Pivot.X},
		{"fixed.y", m.Fixed.Pivot.Y},
	}
	for _, f := range finite {
		if !isFinite(f.v) {
			return &ParameterError{Field: f.field, Value: f.v, Wrapped: ErrNonFinite}
		}
	}
	return nil
}

// Grashof reports whether the shortest and longest of the four bars sum to
// no more than the other two, i.e. at least one link can fully rotate. The
// ground bar is the distance between the two pivots.
func (m Mechanism) Grashof() bool {
	bars := []float64{
		m.Crank.Length,
		m.Fixed.Length,
		m.Link.Length,
		m.Crank.Pivot.Distance(m.Fixed.Pivot),
	}
	sort.Float64s(bars)
	return bars[0]+bars[3] <= bars[1]+bars[2]
}

// Params returns the tunable parameters keyed by name.
func (m Mechanism) Params() map[string]float64 {
	return map[string]float64{
		"crank_length": m.Crank.Length,
		"fixed_length": m.Fixed.Length,
		"link_length":  m.Link.Length,
		"rpm":          m.Crank.RPM,
	}
}

// WithParam returns a copy of m with one parameter replaced. The result is
// validated so a live edit can never produce an unusable mechanism.
func (m Mechanism) WithParam(name string, value float64) (Mechanism, error) {
	switch name {
	case "crank_length":
		m.Crank.Length = value
	case "fixed_length":
		m.Fixed.Length = value
	case "link_length":
		m.Link.Length = value
	case "rpm":
		m.Crank.RPM = value
	default:
		return m, fmt.Errorf("unknown param: %s", name)
	}
	if err := m.Validate(); err != nil {
		return Mechanism{}, err
	}
	return m, nil
}
