package enhance

// OtsuThreshold picks the binarization threshold that maximizes inter-class
// variance over the 256-bin histogram of the plane.
func OtsuThreshold(plane []uint8) uint8 {
	if len(plane) == 0 {
		return 128
	}
	var hist [256]int
	for _, v := range plane {
		hist[v]++
	}

	total := len(plane)
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i) * float64(n)
	}

	var sumB float64
	wB := 0
	best := 0
	var maxVariance float64
	for t := range 256 {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		meanB := sumB / float64(wB)
		meanF := (sumAll - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}
	return uint8(best)
}

// Binarize thresholds a plane: values above t map to 255, the rest to 0.
func Binarize(plane []uint8, t uint8) []uint8 {
	out := make([]uint8, len(plane))
	for i, v := range plane {
		if v > t {
			out[i] = 255
		}
	}
	return out
}
