package enhance

// Erode shrinks bright regions of a binary plane with a square kernel.
func Erode(plane []uint8, width, height, kernel int) []uint8 {
	return morph(plane, width, height, kernel, false)
}

// Dilate grows bright regions of a binary plane with a square kernel.
func Dilate(plane []uint8, width, height, kernel int) []uint8 {
	return morph(plane, width, height, kernel, true)
}

// Open removes small bright noise: erode then dilate.
func Open(plane []uint8, width, height, kernel int) []uint8 {
	return Dilate(Erode(plane, width, height, kernel), width, height, kernel)
}

// Close fills small dark gaps: dilate then erode.
func Close(plane []uint8, width, height, kernel int) []uint8 {
	return Erode(Dilate(plane, width, height, kernel), width, height, kernel)
}

func morph(plane []uint8, width, height, kernel int, dilate bool) []uint8 {
	if kernel <= 1 || width <= 0 || height <= 0 {
		return plane
	}
	half := kernel / 2
	out := make([]uint8, len(plane))
	for y := range height {
		for x := range width {
			var best uint8
			if !dilate {
				best = 255
			}
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					v := plane[ny*width+nx]
					if dilate && v > best {
						best = v
					}
					if !dilate && v < best {
						best = v
					}
				}
			}
			out[y*width+x] = best
		}
	}
	return out
}
