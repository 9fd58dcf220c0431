// Package linkage provides planar four-bar linkage kinematics.
//
// The package is split along the two per-frame stages of a mechanism:
//
//   - [Advance]: integrates the crank angle over elapsed wall-clock time
//   - [Solve]: resolves the triangle formed by the crank end, the fixed
//     pivot and the coupler apex into a [Pose]
//
// Geometry is plain Cartesian with no implied unit and no Y flip; renderers
// map model space to the screen themselves.
//
// # Example
//
//	st, _ := linkage.NewState(mech, time.Now())
//	st = st.Step(time.Now())
//	pose := st.Pose(linkage.BranchMinus)
//
// # Assembly Branch
//
// A four-bar closes in two mirror configurations. [Solve] returns the one
// selected by [Branch] and always reports both in [Pose.Candidates];
// [SolveNearest] keeps the branch continuous across dead points by choosing
// the candidate closest to the previous coupler.
//
// # Thread Safety
//
// Every function is pure and every type is a value. Independent
// [MechanismState] values may be stepped from different goroutines.
package linkage
