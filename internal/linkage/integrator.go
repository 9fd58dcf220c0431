package linkage

import (
	"math"
	"time"
)

const twoPi = 2 * math.Pi

// RPMToRadiansPerSecond converts revolutions per minute to angular velocity.
func RPMToRadiansPerSecond(rpm float64) float64 {
	return rpm / 60 * twoPi
}

// NormalizeAngle maps a finite angle into [0, 2π). Negative angles wrap
// around rather than keeping their sign.
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	// -ε + 2π can round up to exactly 2π.
	if a >= twoPi {
		a = 0
	}
	return a
}

// Advance integrates the crank angle from prev to cur at the given speed.
// A clock that runs backwards simply produces a negative delta.
func Advance(prevAngle float64, prev, cur time.Time, rpm float64) (float64, time.Time) {
	return AdvanceBy(prevAngle, cur.Sub(prev), rpm), cur
}

// AdvanceBy integrates the crank angle over a fixed elapsed duration.
// Whole turns are dropped before converting to radians so that any finite
// speed and duration give a finite angle.
func AdvanceBy(prevAngle float64, elapsed time.Duration, rpm float64) float64 {
	turns := rpm / 60 * elapsed.Seconds()
	if math.IsInf(turns, 0) {
		// Floats this large are whole numbers: no fractional turn is left.
		turns = 0
	}
	delta := math.Mod(turns, 1) * twoPi
	return NormalizeAngle(prevAngle + delta)
}
