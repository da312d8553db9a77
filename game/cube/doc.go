// Package cube tracks the orientation of the six-faced gallery cube.
//
// A Tracker accumulates an Euler rotation from pointer drags, lets it coast
// with decaying momentum, falls back to a slow idle spin, and continuously
// works out which face points at the viewer. When a drag ends and the
// motion settles with a face at least SnapThreshold aligned, the tracker
// tweens to that face's canonical orientation (picking the equivalent
// angle nearest the current one on each axis) and emits an expand event.
//
// State machine:
//
//	Idle -> Dragging -> Idle -> Snapping -> Aligned -> (Release) -> Idle
//
// Faces are indexed +X, -X, +Y, -Y, +Z, -Z and the viewer looks down -Z, so
// the front score of a face is the Z component of its rotated normal.
package cube
