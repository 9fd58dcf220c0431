package linkage

import "time"

// MechanismState is a mechanism plus the only values that change between
// frames: the crank angle and the timestamp it was computed for. Updates
// return a new value.
type MechanismState struct {
	Mechanism Mechanism
	Angle     float64
	Timestamp time.Time
}

// NewState validates m and starts it at its crank angle, normalized.
func NewState(m Mechanism, start time.Time) (MechanismState, error) {
	if err := m.Validate(); err != nil {
		return MechanismState{}, err
	}
	return MechanismState{
		Mechanism: m,
		Angle:     NormalizeAngle(m.Crank.Angle),
		Timestamp: start,
	}, nil
}

// Step advances the crank to now.
func (s MechanismState) Step(now time.Time) MechanismState {
	s.Angle, s.Timestamp = Advance(s.Angle, s.Timestamp, now, s.Mechanism.Crank.RPM)
	return s
}

// WithRPM returns a copy running at a new speed. Angle and timestamp are
// kept so the next Step integrates from the current pose.
func (s MechanismState) WithRPM(rpm float64) (MechanismState, error) {
	m, err := s.Mechanism.WithParam("rpm", rpm)
	if err != nil {
		return s, err
	}
	s.Mechanism = m
	return s, nil
}

// Pose solves the mechanism at the current angle.
func (s MechanismState) Pose(branch Branch) Pose {
	m := s.Mechanism
	return Solve(m.Crank, m.Fixed, m.Link, s.Angle, branch)
}

// PoseNearest solves the mechanism at the current angle, keeping the
// coupler on the branch closest to prev.
func (s MechanismState) PoseNearest(prev Point) Pose {
	m := s.Mechanism
	return SolveNearest(m.Crank, m.Fixed, m.Link, s.Angle, prev)
}
