// Package mapsource builds padded walkability grids: an open square, a text
// map or an image map.
package mapsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sarsim/internal/config"
	"sarsim/internal/domain/grid"
)

// Source picks the loader from cfg.MapFile: none builds an open grid of
// cfg.GridSize, .txt/.map files are text maps, anything else is an image.
type Source struct{}

func (Source) Load(_ context.Context, cfg config.Config) (grid.Grid, error) {
	pad := cfg.WorldOptions().MaxRange()
	path := strings.TrimSpace(cfg.MapFile)
	if path == "" {
		return Simple(cfg.GridSize, pad)
	}
	f, err := os.Open(path)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".map":
		return LoadText(f, pad)
	default:
		return LoadImage(f, pad)
	}
}

// Simple is an open size×size grid whose outer pad rings are walls.
func Simple(size, pad int) (grid.Grid, error) {
	if size <= 0 {
		return grid.Grid{}, fmt.Errorf("%w: size must be positive, got %d", grid.ErrInvalidGrid, size)
	}
	flat := make([]int, size*size)
	for i := range flat {
		flat[i] = grid.Walkable
	}
	return grid.New(size, grid.PadBorder(size, flat, pad))
}

// ensurePadded surrounds flat with pad wall rings unless its border already
// is wall.
func ensurePadded(size int, flat []int, pad int) (grid.Grid, error) {
	if !isPadded(size, flat, pad) {
		size, flat = grid.Surround(size, flat, pad)
	}
	return grid.New(size, flat)
}

func isPadded(size int, flat []int, pad int) bool {
	if pad <= 0 {
		return true
	}
	if 2*pad > size {
		return false
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			border := x < pad || y < pad || x >= size-pad || y >= size-pad
			if border && flat[y*size+x] != grid.Wall {
				return false
			}
		}
	}
	return true
}
