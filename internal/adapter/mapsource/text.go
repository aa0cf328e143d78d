package mapsource

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"sarsim/internal/domain/grid"
)

// LoadText reads a square map, one row per line. '1' and '.' are walkable,
// '0' and '#' are walls; blank lines are skipped.
func LoadText(r io.Reader, pad int) (grid.Grid, error) {
	var (
		flat []int
		size int
		rows int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if size == 0 {
			size = len(line)
		}
		if len(line) != size {
			return grid.Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", grid.ErrInvalidGrid, rows, len(line), size)
		}
		for i, ch := range line {
			switch ch {
			case '1', '.':
				flat = append(flat, grid.Walkable)
			case '0', '#':
				flat = append(flat, grid.Wall)
			default:
				return grid.Grid{}, fmt.Errorf("%w: row %d col %d: unexpected %q", grid.ErrInvalidGrid, rows, i, ch)
			}
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return grid.Grid{}, err
	}
	if rows == 0 || rows != size {
		return grid.Grid{}, fmt.Errorf("%w: map is %dx%d, want square", grid.ErrInvalidGrid, size, rows)
	}
	return ensurePadded(size, flat, pad)
}
