package extract

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/screenmark/internal/matrix"
	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// Overlay scan search bounds. Module sizes cover on-screen renderings from
// the native size up to a 2x recapture.
var overlayModuleSizes = []int{2, 3, 4, 5, 6, 8}

const (
	// overlayQuickTolerance gates the cheap center-pixel finder probe that
	// decides whether an anchor deserves a full matrix sample.
	overlayQuickTolerance = 0.8

	// maxOverlayFullSamples caps the expensive full-matrix samples per scan.
	maxOverlayFullSamples = 64
)

// decodeOverlayScan hunts for a stamp at unknown position and scale: a sliding
// anchor probes the finder template at each trial module size, and anchors
// that pass get a full matrix sample and decode. It recovers stamps that
// moved off the canonical placement (cropped captures, scaled recaptures).
func (e *Engine) decodeOverlayScan(shot *capture) (candidate, bool) {
	w, h := shot.buf.Width, shot.buf.Height
	fullSamples := 0

	for _, ms := range overlayModuleSizes {
		span := matrix.Size * ms
		if span > w || span > h {
			continue
		}
		step := ms * 2
		for y := 0; y+span <= h; y += step {
			for x := 0; x+span <= w; x += step {
				if !quickFinderProbe(shot.luma, w, x, y, ms) {
					continue
				}
				if fullSamples >= maxOverlayFullSamples {
					slog.Debug("overlay scan sample budget exhausted")
					return candidate{}, false
				}
				fullSamples++

				rect := image.Rect(x, y, x+span, y+span)
				m, agreement, ok := sampleMatrix(shot.luma, w, h, rect)
				if !ok || !matrix.ValidateFinder(m, e.cfg.FinderTolerance) {
					continue
				}
				value, err := matrix.DecodeData(m)
				if err != nil || !payload.StructurallyValid(value) {
					continue
				}
				slog.Debug("overlay scan hit", "x", x, "y", y, "module", ms)
				return candidate{value: value, confidence: agreement}, true
			}
		}
	}
	return candidate{}, false
}

// quickFinderProbe samples the center pixel of each module in the 7x7
// top-left finder area and matches it against the template at a min/max
// midpoint threshold. Cheap enough to run at every anchor.
func quickFinderProbe(luma []uint8, w, x0, y0, ms int) bool {
	const finderSpan = 7
	var samples [finderSpan * finderSpan]uint8
	lo, hi := uint8(255), uint8(0)
	for my := range finderSpan {
		for mx := range finderSpan {
			x := x0 + mx*ms + ms/2
			y := y0 + my*ms + ms/2
			v := luma[y*w+x]
			samples[my*finderSpan+mx] = v
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi-lo < uint8(minStampContrast) {
		return false
	}

	thresh := uint8((int(lo) + int(hi)) / 2)
	match := 0
	for my := range finderSpan {
		for mx := range finderSpan {
			var got uint8
			if samples[my*finderSpan+mx] >= thresh {
				got = 1
			}
			if got == finderTemplate(mx, my) {
				match++
			}
		}
	}
	return float64(match)/float64(finderSpan*finderSpan) >= overlayQuickTolerance
}

// finderTemplate mirrors the canonical finder: ring and 3x3 core set.
func finderTemplate(mx, my int) uint8 {
	onRing := mx == 0 || my == 0 || mx == 6 || my == 6
	inCore := mx >= 2 && mx <= 4 && my >= 2 && my <= 4
	if onRing || inCore {
		return 1
	}
	return 0
}
