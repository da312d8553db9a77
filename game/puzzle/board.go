package puzzle

import (
	"fmt"
	"math/rand/v2"
)

// Board is a size×size sliding puzzle stored in row-major order.
// A tile value v > 0 belongs at index v-1 and the empty cell belongs last.
type Board struct {
	size       int
	tiles      []int
	emptyIndex int
}

// New creates a solved board of the given size
func New(size int) (*Board, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: size must be between %d and %d, got %d", ErrInvalidConfiguration, MinSize, MaxSize, size)
	}

	n := size * size
	tiles := make([]int, n)
	for i := 0; i < n-1; i++ {
		tiles[i] = i + 1
	}
	tiles[n-1] = EmptyTile

	return &Board{size: size, tiles: tiles, emptyIndex: n - 1}, nil
}

// FromTiles restores a board from a tile layout
func FromTiles(size int, tiles []int) (*Board, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: size must be between %d and %d, got %d", ErrInvalidConfiguration, MinSize, MaxSize, size)
	}
	n := size * size
	if len(tiles) != n {
		return nil, fmt.Errorf("%w: expected %d tiles, got %d", ErrInvalidConfiguration, n, len(tiles))
	}

	seen := make([]bool, n)
	empty := -1
	for i, v := range tiles {
		if v < 0 || v >= n || seen[v] {
			return nil, fmt.Errorf("%w: tiles are not a permutation of 0..%d", ErrInvalidConfiguration, n-1)
		}
		seen[v] = true
		if v == EmptyTile {
			empty = i
		}
	}
	if !IsSolvable(size, tiles) {
		return nil, fmt.Errorf("%w: layout is not reachable from the solved board", ErrInvalidConfiguration)
	}

	b := &Board{size: size, tiles: make([]int, n), emptyIndex: empty}
	copy(b.tiles, tiles)
	return b, nil
}

// Size returns the side length
func (b *Board) Size() int {
	return b.size
}

// Tiles returns a copy of the tile layout
func (b *Board) Tiles() []int {
	out := make([]int, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// EmptyIndex returns the position of the empty cell
func (b *Board) EmptyIndex() int {
	return b.emptyIndex
}

// TileAt returns the tile value at index, or -1 when out of range
func (b *Board) TileAt(index int) int {
	if index < 0 || index >= len(b.tiles) {
		return -1
	}
	return b.tiles[index]
}

// ValidMoves returns the indices adjacent to the empty cell, in the
// order up, down, left, right
func (b *Board) ValidMoves() []int {
	moves := make([]int, 0, 4)
	row, col := b.emptyIndex/b.size, b.emptyIndex%b.size

	if row > 0 {
		moves = append(moves, b.emptyIndex-b.size)
	}
	if row < b.size-1 {
		moves = append(moves, b.emptyIndex+b.size)
	}
	if col > 0 {
		moves = append(moves, b.emptyIndex-1)
	}
	if col < b.size-1 {
		moves = append(moves, b.emptyIndex+1)
	}
	return moves
}

// CanMove reports whether the tile at index can slide into the empty cell
func (b *Board) CanMove(index int) bool {
	for _, m := range b.ValidMoves() {
		if m == index {
			return true
		}
	}
	return false
}

// Move slides the tile at index into the empty cell.
// The board is left untouched when the move is illegal.
func (b *Board) Move(index int) error {
	if !b.CanMove(index) {
		return fmt.Errorf("%w: index %d is not adjacent to empty cell %d", ErrInvalidMove, index, b.emptyIndex)
	}

	b.tiles[b.emptyIndex] = b.tiles[index]
	b.tiles[index] = EmptyTile
	b.emptyIndex = index
	return nil
}

// Shuffle applies moveCount random legal moves
func (b *Board) Shuffle(moveCount int, rng *rand.Rand) {
	for i := 0; i < moveCount; i++ {
		moves := b.ValidMoves()
		target := moves[rng.IntN(len(moves))]
		// target is always legal here
		_ = b.Move(target)
	}
}

// IsSolved reports whether every tile sits in its home cell
func (b *Board) IsSolved() bool {
	n := len(b.tiles)
	for i := 0; i < n-1; i++ {
		if b.tiles[i] != i+1 {
			return false
		}
	}
	return b.tiles[n-1] == EmptyTile
}

// SolveInstantly restores the solved layout
func (b *Board) SolveInstantly() {
	n := len(b.tiles)
	for i := 0; i < n-1; i++ {
		b.tiles[i] = i + 1
	}
	b.tiles[n-1] = EmptyTile
	b.emptyIndex = n - 1
}

// SwipeTarget returns the index of the tile a swipe would move.
// A swipe moves the tile on the opposite side of the empty cell toward it.
func (b *Board) SwipeTarget(dir Direction) (int, bool) {
	row, col := b.emptyIndex/b.size, b.emptyIndex%b.size

	switch dir {
	case Up:
		if row < b.size-1 {
			return b.emptyIndex + b.size, true
		}
	case Down:
		if row > 0 {
			return b.emptyIndex - b.size, true
		}
	case Left:
		if col < b.size-1 {
			return b.emptyIndex + 1, true
		}
	case Right:
		if col > 0 {
			return b.emptyIndex - 1, true
		}
	}
	return -1, false
}

// Snapshot returns a copy of the board
func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		Size:       b.size,
		Tiles:      b.Tiles(),
		EmptyIndex: b.emptyIndex,
		Solved:     b.IsSolved(),
	}
}

// Clone returns an independent copy of the board
func (b *Board) Clone() *Board {
	return &Board{size: b.size, tiles: b.Tiles(), emptyIndex: b.emptyIndex}
}
