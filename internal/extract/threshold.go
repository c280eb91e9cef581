package extract

import "github.com/MeKo-Tech/screenmark/internal/pixel"

// effectiveThreshold scales the base confidence threshold by a multiplier
// derived from local-window luminance variance. Smooth captures (flat UI
// screenshots) get a lower bar; busy photographs get a higher one, cutting
// false positives on textured content.
func (e *Engine) effectiveThreshold(buf *pixel.Buffer) float64 {
	mult := varianceMultiplier(buf)
	t := e.cfg.ConfidenceThreshold * mult
	if t > 0.95 {
		t = 0.95
	}
	return t
}

const (
	varianceWindow = 32
	// varianceKnee is the mean local variance at which the multiplier
	// reaches its midpoint (8-bit luma units squared).
	varianceKnee = 1500.0
	minMult      = 0.75
	maxMult      = 1.5
)

// varianceMultiplier averages luminance variance over a grid of windows and
// maps it into [minMult, maxMult].
func varianceMultiplier(buf *pixel.Buffer) float64 {
	if buf.Empty() {
		return minMult
	}
	luma := buf.Luminance()
	w, h := buf.Width, buf.Height

	var total float64
	windows := 0
	for y := 0; y < h; y += varianceWindow {
		for x := 0; x < w; x += varianceWindow {
			x1 := minInt(x+varianceWindow, w)
			y1 := minInt(y+varianceWindow, h)
			total += windowVariance(luma, w, x, y, x1, y1)
			windows++
		}
	}
	if windows == 0 {
		return minMult
	}
	norm := total / float64(windows) / varianceKnee
	if norm > 1 {
		norm = 1
	}
	return minMult + (maxMult-minMult)*norm
}

func windowVariance(luma []uint8, stride, x0, y0, x1, y1 int) float64 {
	n := (x1 - x0) * (y1 - y0)
	if n <= 0 {
		return 0
	}
	var sum float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sum += float64(luma[y*stride+x])
		}
	}
	mean := sum / float64(n)
	var variance float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := float64(luma[y*stride+x]) - mean
			variance += d * d
		}
	}
	return variance / float64(n)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
