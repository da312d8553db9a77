// Package puzzle provides the sliding-tile puzzle used by the studio widgets.
//
// The package is split in two layers:
//   - Board holds the tile permutation and implements the pure board
//     operations: neighbour lookup, legal moves, shuffling by random legal
//     moves, solved detection and swipe-direction mapping.
//   - PuzzleEngine wraps a Board with the round state machine
//     (unsolved -> solved -> next round), move history, image cycling and
//     event notification.
//
// Usage:
//
//	eng, err := puzzle.NewEngine(puzzle.DefaultConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Swipe up moves the tile below the empty cell into it
//	snap, err := eng.Swipe(puzzle.Up)
//	if errors.Is(err, puzzle.ErrInvalidMove) {
//		// nothing below the empty cell
//	}
//
// Board indices are row-major. A tile with value v belongs at index v-1 and
// displays the image region at column (v-1) mod size, row (v-1) / size.
// Value 0 is the empty cell and belongs at the last index.
package puzzle
