package enhance

import (
	"math"
	"sort"
)

// StretchPercentile linearly stretches the plane so the given low/high
// percentiles map to 0 and 255.
func StretchPercentile(plane []uint8, lowPct, highPct float64) []uint8 {
	if len(plane) == 0 {
		return plane
	}
	sorted := make([]uint8, len(plane))
	copy(sorted, plane)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	lo := float64(sorted[percentileIndex(len(sorted), lowPct)])
	hi := float64(sorted[percentileIndex(len(sorted), highPct)])
	if hi <= lo {
		return append([]uint8(nil), plane...)
	}
	out := make([]uint8, len(plane))
	scale := 255 / (hi - lo)
	for i, v := range plane {
		out[i] = clampU8((float64(v) - lo) * scale)
	}
	return out
}

func percentileIndex(n int, pct float64) int {
	i := int(float64(n) * pct / 100)
	return clampInt(i, 0, n-1)
}

// DenoiseBilateral applies an edge-preserving smoothing: a small spatial
// window weighted by intensity similarity, so module edges stay sharp while
// sensor noise flattens out.
func DenoiseBilateral(plane []uint8, width, height int) []uint8 {
	const radius = 2
	const sigmaSpace = 1.5
	const sigmaRange = 30.0
	if width <= 0 || height <= 0 {
		return plane
	}
	out := make([]uint8, len(plane))
	for y := range height {
		for x := range width {
			center := float64(plane[y*width+x])
			var sum, weight float64
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx := clampInt(x+dx, 0, width-1)
					ny := clampInt(y+dy, 0, height-1)
					v := float64(plane[ny*width+nx])
					ds := float64(dx*dx + dy*dy)
					dr := v - center
					w := math.Exp(-ds/(2*sigmaSpace*sigmaSpace)) *
						math.Exp(-dr*dr/(2*sigmaRange*sigmaRange))
					sum += v * w
					weight += w
				}
			}
			out[y*width+x] = clampU8(sum / weight)
		}
	}
	return out
}

// UnsharpMask sharpens by adding back the difference from a 3x3 box blur.
func UnsharpMask(plane []uint8, width, height int, amount float64) []uint8 {
	if width <= 0 || height <= 0 || amount <= 0 {
		return plane
	}
	out := make([]uint8, len(plane))
	for y := range height {
		for x := range width {
			var sum float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(x+dx, 0, width-1)
					ny := clampInt(y+dy, 0, height-1)
					sum += float64(plane[ny*width+nx])
				}
			}
			blur := sum / 9
			v := float64(plane[y*width+x])
			out[y*width+x] = clampU8(v + amount*(v-blur))
		}
	}
	return out
}

// GammaCorrect applies a power-law remap.
func GammaCorrect(plane []uint8, gamma float64) []uint8 {
	if gamma <= 0 {
		return plane
	}
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampU8(math.Pow(float64(i)/255, gamma) * 255)
	}
	out := make([]uint8, len(plane))
	for i, v := range plane {
		out[i] = lut[v]
	}
	return out
}

// MedianFilter replaces each pixel with the median of its window (window is
// the odd kernel edge length, e.g. 3).
func MedianFilter(plane []uint8, width, height, window int) []uint8 {
	if window < 3 || width <= 0 || height <= 0 {
		return plane
	}
	radius := window / 2
	out := make([]uint8, len(plane))
	buf := make([]uint8, 0, window*window)
	for y := range height {
		for x := range width {
			buf = buf[:0]
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx := clampInt(x+dx, 0, width-1)
					ny := clampInt(y+dy, 0, height-1)
					buf = append(buf, plane[ny*width+nx])
				}
			}
			sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
			out[y*width+x] = buf[len(buf)/2]
		}
	}
	return out
}

func clampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
