package puzzle

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// TileView describes how a renderer should draw one cell
type TileView struct {
	Index    int    `json:"index"`
	Value    int    `json:"value"`
	Empty    bool   `json:"empty"`
	Movable  bool   `json:"movable"`
	CropCol  int    `json:"crop_col"`
	CropRow  int    `json:"crop_row"`
	BgX      string `json:"bg_x,omitempty"`
	BgY      string `json:"bg_y,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// CropPosition returns the column and row of the image region shown on tile v
func CropPosition(size, value int) (col, row int) {
	if value <= 0 {
		return -1, -1
	}
	return (value - 1) % size, (value - 1) / size
}

// FallbackColor returns the flat colour a tile uses when its image is missing
func FallbackColor(value int) string {
	hue := float64((value * 24) % 360)
	return colorful.Hsl(hue, 0.40, 0.45).Hex()
}

// Layout returns one TileView per board index
func Layout(b *Board) []TileView {
	movable := make(map[int]bool, 4)
	for _, m := range b.ValidMoves() {
		movable[m] = true
	}

	views := make([]TileView, 0, len(b.tiles))
	for i, v := range b.tiles {
		view := TileView{Index: i, Value: v, Empty: v == EmptyTile, Movable: movable[i]}
		if v != EmptyTile {
			view.CropCol, view.CropRow = CropPosition(b.size, v)
			view.BgX = percent(view.CropCol, b.size)
			view.BgY = percent(view.CropRow, b.size)
			view.Fallback = FallbackColor(v)
		} else {
			view.CropCol, view.CropRow = -1, -1
		}
		views = append(views, view)
	}
	return views
}

func percent(n, size int) string {
	return fmt.Sprintf("%g%%", float64(n)/float64(size-1)*100)
}
