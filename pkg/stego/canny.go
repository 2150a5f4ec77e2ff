package stego

const (
	tan22 = 0.4142135623730950488
	tan67 = 2.4142135623730950488
)

// cannyEdges marks edge pixels of a single-channel plane: 3x3 Sobel
// gradients with L1 magnitude, non-maximum suppression, then hysteresis
// between low and high. Borders replicate the nearest pixel.
func cannyEdges(plane []uint8, w, h int, low, high int) []bool {
	at := func(x, y int) int {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int(plane[y*w+x])
	}

	gx := make([]int, w*h)
	gy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			dy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = abs(dx) + abs(dy)
		}
	}

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	class := make([]uint8, w*h)
	stack := make([]int, 0, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := float64(abs(gx[i])), float64(abs(gy[i]))
			var a, b int
			switch {
			case ay < ax*tan22:
				a, b = magAt(x-1, y), magAt(x+1, y)
			case ay > ax*tan67:
				a, b = magAt(x, y-1), magAt(x, y+1)
			case (gx[i] < 0) == (gy[i] < 0):
				a, b = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				a, b = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= a || m < b {
				continue
			}
			if m > high {
				class[i] = strong
				stack = append(stack, i)
			} else {
				class[i] = weak
			}
		}
	}

	edges := make([]bool, w*h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[i] {
			continue
		}
		edges[i] = true
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if class[j] != none && !edges[j] {
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
