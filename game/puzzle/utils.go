package puzzle

// IsSolvable reports whether tiles can be reached from the solved layout
// by sliding moves. Odd boards need an even inversion count; even boards
// need the inversion count plus the empty cell's row to be odd.
func IsSolvable(size int, tiles []int) bool {
	inversions := CountInversions(tiles)
	if size%2 == 1 {
		return inversions%2 == 0
	}

	emptyRow := -1
	for i, v := range tiles {
		if v == EmptyTile {
			emptyRow = i / size
			break
		}
	}
	if emptyRow < 0 {
		return false
	}
	return (inversions+emptyRow)%2 == 1
}

// CountInversions counts ordered pairs of tiles that appear out of order,
// ignoring the empty cell
func CountInversions(tiles []int) int {
	count := 0
	for i := 0; i < len(tiles); i++ {
		if tiles[i] == EmptyTile {
			continue
		}
		for j := i + 1; j < len(tiles); j++ {
			if tiles[j] != EmptyTile && tiles[i] > tiles[j] {
				count++
			}
		}
	}
	return count
}

// ManhattanDistance sums how far every tile is from its home cell
func (b *Board) ManhattanDistance() int {
	total := 0
	for i, v := range b.tiles {
		if v == EmptyTile {
			continue
		}
		home := v - 1
		total += abs(i/b.size-home/b.size) + abs(i%b.size-home%b.size)
	}
	return total
}

// Misplaced counts tiles that are not in their home cell
func (b *Board) Misplaced() int {
	count := 0
	for i, v := range b.tiles {
		if v != EmptyTile && v != i+1 {
			count++
		}
	}
	return count
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
