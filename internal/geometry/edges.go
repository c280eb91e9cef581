package geometry

import (
	"math"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// edgeMap holds the intermediate gradient state of the classical pipeline.
type edgeMap struct {
	width, height int
	magnitude     []float64
	direction     []float64 // radians
}

// detectEdges runs grayscale -> Gaussian blur -> Sobel -> non-maximum
// suppression -> hysteresis and returns a binary edge mask.
func detectEdges(buf *pixel.Buffer, cfg Config) []bool {
	gray := toFloatPlane(buf.Luminance())
	blurred := gaussianBlur(gray, buf.Width, buf.Height, cfg.BlurSigma)
	edges := sobel(blurred, buf.Width, buf.Height)
	thin := nonMaxSuppress(edges)
	return hysteresis(thin, cfg.EdgeLowThreshold, cfg.EdgeHighThreshold)
}

func toFloatPlane(plane []uint8) []float64 {
	out := make([]float64, len(plane))
	for i, v := range plane {
		out[i] = float64(v)
	}
	return out
}

// gaussianBlur applies a separable Gaussian with kernel radius derived from
// sigma.
func gaussianBlur(plane []float64, w, h int, sigma float64) []float64 {
	if sigma <= 0 {
		return plane
	}
	radius := int(math.Ceil(sigma * 3))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	tmp := make([]float64, len(plane))
	out := make([]float64, len(plane))
	// Horizontal pass
	for y := range h {
		row := y * w
		for x := range w {
			var acc float64
			for k := -radius; k <= radius; k++ {
				sx := clampIdx(x+k, w)
				acc += plane[row+sx] * kernel[k+radius]
			}
			tmp[row+x] = acc
		}
	}
	// Vertical pass
	for y := range h {
		for x := range w {
			var acc float64
			for k := -radius; k <= radius; k++ {
				sy := clampIdx(y+k, h)
				acc += tmp[sy*w+x] * kernel[k+radius]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// sobel computes gradient magnitude and direction with the 3x3 Sobel
// operators.
func sobel(plane []float64, w, h int) edgeMap {
	em := edgeMap{
		width:     w,
		height:    h,
		magnitude: make([]float64, w*h),
		direction: make([]float64, w*h),
	}
	at := func(x, y int) float64 { return plane[clampIdx(y, h)*w+clampIdx(x, w)] }
	for y := range h {
		for x := range w {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*w + x
			em.magnitude[i] = math.Hypot(gx, gy)
			em.direction[i] = math.Atan2(gy, gx)
		}
	}
	return em
}

// nonMaxSuppress thins edges by keeping only local maxima along the gradient
// direction, quantized to four directions.
func nonMaxSuppress(em edgeMap) edgeMap {
	out := edgeMap{
		width:     em.width,
		height:    em.height,
		magnitude: make([]float64, len(em.magnitude)),
		direction: em.direction,
	}
	w, h := em.width, em.height
	mag := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return em.magnitude[y*w+x]
	}
	for y := range h {
		for x := range w {
			i := y*w + x
			m := em.magnitude[i]
			if m == 0 {
				continue
			}
			angle := em.direction[i] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			var a, b float64
			switch {
			case angle < 22.5 || angle >= 157.5: // horizontal gradient
				a, b = mag(x-1, y), mag(x+1, y)
			case angle < 67.5: // diagonal /
				a, b = mag(x+1, y-1), mag(x-1, y+1)
			case angle < 112.5: // vertical gradient
				a, b = mag(x, y-1), mag(x, y+1)
			default: // diagonal \
				a, b = mag(x-1, y-1), mag(x+1, y+1)
			}
			if m >= a && m >= b {
				out.magnitude[i] = m
			}
		}
	}
	return out
}

// hysteresis applies the double threshold: strong edges seed a flood fill
// that promotes connected weak edges.
func hysteresis(em edgeMap, low, high float64) []bool {
	w, h := em.width, em.height
	mask := make([]bool, w*h)
	stack := make([][2]int, 0, 256)
	for y := range h {
		for x := range w {
			i := y*w + x
			if em.magnitude[i] >= high && !mask[i] {
				mask[i] = true
				stack = append(stack, [2]int{x, y})
				for len(stack) > 0 {
					p := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							nx, ny := p[0]+dx, p[1]+dy
							if nx < 0 || ny < 0 || nx >= w || ny >= h {
								continue
							}
							j := ny*w + nx
							if !mask[j] && em.magnitude[j] >= low {
								mask[j] = true
								stack = append(stack, [2]int{nx, ny})
							}
						}
					}
				}
			}
		}
	}
	return mask
}
