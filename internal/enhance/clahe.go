package enhance

// CLAHEConfig controls contrast-limited adaptive histogram equalization.
type CLAHEConfig struct {
	TilesX    int
	TilesY    int
	ClipLimit float64 // multiple of the average bin height
}

// DefaultCLAHEConfig returns the standard 8x8 tiling with clip factor 2.0.
func DefaultCLAHEConfig() CLAHEConfig {
	return CLAHEConfig{TilesX: 8, TilesY: 8, ClipLimit: 2.0}
}

// CLAHE equalizes a plane tile by tile with clipped histograms: each bin is
// capped at avgBinHeight*ClipLimit, the clipped excess is redistributed
// uniformly, and pixels are remapped through the tile's normalized CDF.
// Pixels are interpolated bilinearly between the four surrounding tile
// mappings to avoid tile seams.
func CLAHE(plane []uint8, width, height int, cfg CLAHEConfig) []uint8 {
	if cfg.TilesX <= 0 || cfg.TilesY <= 0 || cfg.ClipLimit <= 0 {
		cfg = DefaultCLAHEConfig()
	}
	if width <= 0 || height <= 0 || len(plane) != width*height {
		return plane
	}
	tx, ty := cfg.TilesX, cfg.TilesY
	if tx > width {
		tx = width
	}
	if ty > height {
		ty = height
	}

	// Per-tile lookup tables.
	luts := make([][256]uint8, tx*ty)
	tileW := (width + tx - 1) / tx
	tileH := (height + ty - 1) / ty
	for tyi := range ty {
		for txi := range tx {
			x0, y0 := txi*tileW, tyi*tileH
			x1, y1 := minInt(x0+tileW, width), minInt(y0+tileH, height)
			luts[tyi*tx+txi] = tileLUT(plane, width, x0, y0, x1, y1, cfg.ClipLimit)
		}
	}

	out := make([]uint8, len(plane))
	for y := range height {
		// Fractional tile coordinates centered on tile midpoints.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := clampInt(int(fy), 0, ty-1)
		ty1 := clampInt(ty0+1, 0, ty-1)
		wy := fy - float64(ty0)
		if wy < 0 {
			wy = 0
		}
		if wy > 1 {
			wy = 1
		}
		for x := range width {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := clampInt(int(fx), 0, tx-1)
			tx1 := clampInt(tx0+1, 0, tx-1)
			wx := fx - float64(tx0)
			if wx < 0 {
				wx = 0
			}
			if wx > 1 {
				wx = 1
			}
			v := plane[y*width+x]
			v00 := float64(luts[ty0*tx+tx0][v])
			v10 := float64(luts[ty0*tx+tx1][v])
			v01 := float64(luts[ty1*tx+tx0][v])
			v11 := float64(luts[ty1*tx+tx1][v])
			top := v00 + (v10-v00)*wx
			bot := v01 + (v11-v01)*wx
			out[y*width+x] = uint8(top + (bot-top)*wy + 0.5)
		}
	}
	return out
}

// tileLUT builds the clipped-equalization lookup table for one tile.
func tileLUT(plane []uint8, width, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]float64
	count := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[plane[y*width+x]]++
			count++
		}
	}
	var lut [256]uint8
	if count == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	// Clip each bin and pool the excess.
	ceiling := float64(count) / 256 * clipLimit
	var excess float64
	for i := range hist {
		if hist[i] > ceiling {
			excess += hist[i] - ceiling
			hist[i] = ceiling
		}
	}
	// Redistribute the excess uniformly.
	share := excess / 256
	for i := range hist {
		hist[i] += share
	}

	// Normalized CDF remap.
	var cdf float64
	for i := range hist {
		cdf += hist[i]
		lut[i] = uint8(cdf/float64(count)*255 + 0.5)
	}
	return lut
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
