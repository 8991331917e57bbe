// Package viz draws a running cradle in the terminal.
//
// [Model] is a Bubble Tea model that steps a [sim.Cradle] on every tick and
// renders it on a braille [Canvas] next to a settings panel mirroring the
// cradle's configuration:
//
//	Space      - Run/Stop
//	R          - Reset balls to their starting angles
//	Up/Down    - Select a setting
//	Left/Right - Adjust it (only while stopped)
//	T          - Cycle color themes
//	?          - Show help overlay
package viz
