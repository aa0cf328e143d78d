package grid

// PadBorder marks a border of width pad around a size×size flat grid as wall.
// Range queries near the edge then only ever see walls.
func PadBorder(size int, flat []int, pad int) []int {
	out := make([]int, len(flat))
	copy(out, flat)
	if pad <= 0 {
		return out
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x < pad || y < pad || x >= size-pad || y >= size-pad {
				out[y*size+x] = Wall
			}
		}
	}
	return out
}

// Surround grows a size×size flat grid by pad wall cells on every side and
// returns the new side length.
func Surround(size int, flat []int, pad int) (int, []int) {
	if pad <= 0 {
		out := make([]int, len(flat))
		copy(out, flat)
		return size, out
	}
	n := size + 2*pad
	out := make([]int, n*n)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			out[(y+pad)*n+x+pad] = flat[y*size+x]
		}
	}
	return n, out
}
