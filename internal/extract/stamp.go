package extract

import (
	"image"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/screenmark/internal/enhance"
	"github.com/MeKo-Tech/screenmark/internal/matrix"
	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// minStampContrast is the minimum interquartile spread of module samples for
// the local threshold to be trusted; flatter regions fall back to Otsu over
// the samples.
const minStampContrast = 8.0

// stampJitter is the translational search window around each placement rect.
// It covers the registration error left by geometry correction, whose corner
// estimates land within a couple of pixels of the true screen edge.
const stampJitter = 2

// decodeStampSampling samples the watermark matrix directly at each placement
// corner, sweeping a small jitter window around the nominal rect, and decodes
// its data zone. The best finder-validated sample wins.
func (e *Engine) decodeStampSampling(shot *capture) (candidate, bool) {
	best := candidate{}
	found := false
	for _, corner := range e.cfg.Placement.Corners {
		rect, ok := e.cfg.Placement.Rect(corner, shot.buf.Width, shot.buf.Height)
		if !ok {
			continue
		}
		for dy := -stampJitter; dy <= stampJitter; dy++ {
			for dx := -stampJitter; dx <= stampJitter; dx++ {
				r := rect.Add(image.Point{X: dx, Y: dy})
				m, agreement, ok := sampleMatrix(shot.luma, shot.buf.Width, shot.buf.Height, r)
				if !ok || !matrix.ValidateFinder(m, e.cfg.FinderTolerance) {
					continue
				}
				value, err := matrix.DecodeData(m)
				if err != nil || !payload.StructurallyValid(value) {
					continue
				}
				if !found || agreement > best.confidence {
					best = candidate{value: value, confidence: agreement}
					found = true
				}
			}
		}
	}
	return best, found
}

// sampleMatrix reads a rendered stamp back out of the luminance plane. Each
// module becomes the mean of its pixels, thresholded at the midpoint of the
// sample interquartile range so a semi-transparent stamp on any background
// still splits into its two palette levels. Returns the sampled matrix and
// the structural-cell agreement ratio used as confidence.
func sampleMatrix(luma []uint8, w, h int, rect image.Rectangle) (*matrix.Matrix, float64, bool) {
	samples, ok := moduleSamples(luma, w, h, rect)
	if !ok {
		return nil, 0, false
	}
	thresh := sampleThreshold(samples)

	m := matrix.NewStructured()
	for my := range matrix.Size {
		for mx := range matrix.Size {
			var v uint8
			if samples[my*matrix.Size+mx] >= thresh {
				v = 1
			}
			m.Set(mx, my, v)
		}
	}

	ref := matrix.NewStructured()
	match, total := 0, 0
	for y := range matrix.Size {
		for x := range matrix.Size {
			if !ref.Reserved(x, y) {
				continue
			}
			if m.Get(x, y) == ref.Get(x, y) {
				match++
			}
			total++
		}
	}
	if total == 0 {
		return nil, 0, false
	}
	return m, float64(match) / float64(total), true
}

// moduleSamples averages the luminance of every module cell in rect. Only the
// central portion of each cell is sampled: resampled or blurred captures bleed
// neighboring modules into the cell borders, and edge pixels would drag the
// mean across the threshold.
func moduleSamples(luma []uint8, w, h int, rect image.Rectangle) ([]float64, bool) {
	mw := float64(rect.Dx()) / matrix.Size
	mh := float64(rect.Dy()) / matrix.Size
	if mw < 1 || mh < 1 {
		return nil, false
	}
	insetX := int(mw / 3)
	insetY := int(mh / 3)

	samples := make([]float64, matrix.Size*matrix.Size)
	for my := range matrix.Size {
		for mx := range matrix.Size {
			x0 := rect.Min.X + int(float64(mx)*mw) + insetX
			y0 := rect.Min.Y + int(float64(my)*mh) + insetY
			x1 := rect.Min.X + int(float64(mx+1)*mw) - insetX
			y1 := rect.Min.Y + int(float64(my+1)*mh) - insetY
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}

			var sum float64
			n := 0
			for y := y0; y < y1; y++ {
				if y < 0 || y >= h {
					continue
				}
				for x := x0; x < x1; x++ {
					if x < 0 || x >= w {
						continue
					}
					sum += float64(luma[y*w+x])
					n++
				}
			}
			if n == 0 {
				return nil, false
			}
			samples[my*matrix.Size+mx] = sum / float64(n)
		}
	}
	return samples, true
}

// sampleThreshold picks the high/low split for a stamp's module samples:
// midpoint of the interquartile range, or Otsu over the samples when the
// local contrast is too flat to trust percentiles.
func sampleThreshold(samples []float64) float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	p25 := sorted[len(sorted)/4]
	p75 := sorted[len(sorted)*3/4]
	if p75-p25 >= minStampContrast {
		return (p25 + p75) / 2
	}

	plane := make([]uint8, len(samples))
	for i, s := range samples {
		plane[i] = uint8(s)
	}
	t := enhance.OtsuThreshold(plane)
	slog.Debug("stamp threshold fell back to otsu", "threshold", t, "iqr", p75-p25)
	return float64(t)
}
