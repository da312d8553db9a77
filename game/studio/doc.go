// Package studio defines the preset format shared by the puzzle and cube
// widgets: board size and shuffle depth, the puzzle image rotation, round
// reset timing, cube tuning and the photo shown on each cube face.
//
// Presets are JSON files:
//
//	{
//	  "name": "Classic",
//	  "puzzle": {"size": 4, "shuffle_moves": 150, "images": ["/a.jpg"]},
//	  "cube": {"snap_threshold": 0.85, "faces": [...]}
//	}
//
// Missing fields are filled from DefaultConfig before validation.
package studio
