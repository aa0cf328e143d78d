package mapsource

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"sarsim/internal/domain/grid"
)

// LoadImage reads a square image map. Black pixels are free space, every
// other pixel is wall.
func LoadImage(r io.Reader, pad int) (grid.Grid, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("decode map image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() || b.Dx() == 0 {
		return grid.Grid{}, fmt.Errorf("%w: image is %dx%d, want square", grid.ErrInvalidGrid, b.Dx(), b.Dy())
	}
	size := b.Dx()
	flat := make([]int, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if g.Y == 0 {
				flat[y*size+x] = grid.Walkable
			}
		}
	}
	return ensurePadded(size, flat, pad)
}
