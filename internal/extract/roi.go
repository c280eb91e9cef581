package extract

import (
	"context"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/screenmark/internal/enhance"
	"github.com/MeKo-Tech/screenmark/internal/matrix"
	"github.com/MeKo-Tech/screenmark/internal/mcode"
	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// readerConfidence is assigned to reader decodes: the backend performs its own
// error correction, so a successful decode is near-certain but not calibrated.
const readerConfidence = 0.9

// decodeROIReader crops every candidate region, runs the enhancement
// pipelines plus the channel-fusion variants, and decodes each rendition:
// first through the matrix-code backend (which handles standard symbologies),
// then by sampling the watermark matrix directly out of the rendition. The
// direct sampling is what decodes stamps the backend cannot, so the strategy
// runs even without a reader. First non-empty decode wins.
func (e *Engine) decodeROIReader(shot *capture) (candidate, bool) {
	ctx := context.Background()
	regions := enhance.CandidateRegions(shot.buf.Width, shot.buf.Height, e.cfg.Placement)
	for _, region := range regions {
		if e.reader == nil && region.Inner.Empty() {
			continue
		}
		crop := enhance.Crop(shot.buf, region)
		if crop.Empty() {
			continue
		}
		cropRect := region.Rect.Intersect(shot.buf.Bounds())
		for _, variant := range e.regionVariants(crop) {
			if e.reader != nil {
				results, err := e.reader.Decode(ctx, variant.ToImage(), mcode.Options{TryHarder: true})
				if err == nil {
					for _, r := range results {
						if r.Value == "" {
							continue
						}
						slog.Debug("reader decode", "region", region.Label, "length", len(r.Value))
						return candidate{value: r.Value, confidence: readerConfidence}, true
					}
				}
			}
			if cand, ok := sampleEnhancedStamp(variant, crop, cropRect, region, e.cfg.FinderTolerance); ok {
				slog.Debug("enhanced stamp decode", "region", region.Label, "confidence", cand.confidence)
				return cand, true
			}
		}
	}
	return candidate{}, false
}

// sampleEnhancedStamp reads the watermark matrix out of an enhanced rendition
// of a region with a known stamp rectangle. The enhancement pipelines upsample
// their output, so the rectangle is rescaled into rendition coordinates before
// sampling.
func sampleEnhancedStamp(variant, crop *pixel.Buffer, cropRect image.Rectangle, region enhance.Region, tolerance float64) (candidate, bool) {
	if region.Inner.Empty() || crop.Width <= 0 || variant.Empty() {
		return candidate{}, false
	}
	factor := variant.Width / crop.Width
	if factor < 1 {
		return candidate{}, false
	}
	inner := region.Inner.Intersect(cropRect)
	if inner.Empty() {
		return candidate{}, false
	}
	rect := image.Rect(
		(inner.Min.X-cropRect.Min.X)*factor,
		(inner.Min.Y-cropRect.Min.Y)*factor,
		(inner.Max.X-cropRect.Min.X)*factor,
		(inner.Max.Y-cropRect.Min.Y)*factor,
	)
	m, agreement, ok := sampleMatrix(variant.Luminance(), variant.Width, variant.Height, rect)
	if !ok || !matrix.ValidateFinder(m, tolerance) {
		return candidate{}, false
	}
	value, err := matrix.DecodeData(m)
	if err != nil || !payload.StructurallyValid(value) {
		return candidate{}, false
	}
	return candidate{value: value, confidence: agreement}, true
}

// regionVariants renders the decode attempts for one crop: the two
// enhancement pipelines and three channel fusions that pull a blue-channel
// stamp out of chromatic noise.
func (e *Engine) regionVariants(crop *pixel.Buffer) []*pixel.Buffer {
	return []*pixel.Buffer{
		e.enhancer.EnhanceBlue(crop),
		e.enhancer.EnhanceGray(crop),
		fusePlane(crop, blueDominant),
		fusePlane(crop, channelDiff),
		fusePlane(crop, weightedBlue),
	}
}

// fusePlane maps every pixel through a channel-fusion function and returns
// the result as a gray buffer.
func fusePlane(crop *pixel.Buffer, fuse func(r, g, b uint8) uint8) *pixel.Buffer {
	plane := make([]uint8, crop.Width*crop.Height)
	for i := range plane {
		j := i * 4
		plane[i] = fuse(crop.Pix[j], crop.Pix[j+1], crop.Pix[j+2])
	}
	return enhance.PlaneToBuffer(plane, crop.Width, crop.Height)
}

func blueDominant(_, _, b uint8) uint8 { return b }

// channelDiff isolates blue-heavy modules: 2B - R - G, clamped.
func channelDiff(r, g, b uint8) uint8 {
	return pixel.ClampU8(2*float64(b) - float64(r) - float64(g))
}

func weightedBlue(r, g, b uint8) uint8 {
	return pixel.ClampU8(0.2*float64(r) + 0.2*float64(g) + 0.6*float64(b))
}
