// Package viz renders a running linkage in the terminal.
//
// The package is the rendering side of the solver: it owns the clock, the
// screen mapping and the Y flip, and calls into [linkage] once per frame.
//
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Viewport]: model space to canvas sub-pixels
//   - [Model]: Bubble Tea program driving one mechanism
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+/-   - Change crank speed by 1 rpm
//	B     - Cycle branch mode (minus, plus, nearest)
//	R     - Reset to initial state
//	T     - Cycle color themes
//	Q     - Quit
package viz
