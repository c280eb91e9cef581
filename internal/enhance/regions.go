// Package enhance crops candidate regions from a capture and runs the
// contrast/threshold/morphology pipelines that maximize their decodability.
package enhance

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// RegionKind distinguishes regions expected to hold an embedded pattern from
// regions expected to hold a rendered overlay stamp.
type RegionKind int

const (
	KindEmbedded RegionKind = iota
	KindOverlayStamp
)

// Region is a known or hypothesized location holding a pattern.
type Region struct {
	Rect  image.Rectangle
	Label string
	Kind  RegionKind

	// Inner is the unpadded pattern rectangle when the region derives from a
	// known placement, in full-capture coordinates. Zero for sweep windows.
	Inner image.Rectangle
}

// regionPadFrac expands each candidate crop symmetrically so a slightly
// misplaced stamp still lands inside it.
const regionPadFrac = 0.25

// maxSweepTiles caps the grid sweep.
const maxSweepTiles = 16

// CandidateRegions enumerates the decode candidates for a buffer: the four
// embedded-pattern corners, the four overlay-stamp corners from the shared
// placement, and a 50%-overlap grid sweep.
func CandidateRegions(width, height int, placement embed.StampPlacement) []Region {
	var regions []Region

	corners := []struct {
		corner embed.Corner
		label  string
	}{
		{embed.CornerTopLeft, "top-left"},
		{embed.CornerTopRight, "top-right"},
		{embed.CornerBottomLeft, "bottom-left"},
		{embed.CornerBottomRight, "bottom-right"},
	}

	// Overlay-stamp corners come straight from the placement that the
	// embedder used, padded for recapture jitter.
	for _, c := range corners {
		rect, ok := placement.Rect(c.corner, width, height)
		if !ok {
			continue
		}
		pad := int(float64(rect.Dx()) * regionPadFrac)
		regions = append(regions, Region{
			Rect:  rect.Inset(-pad),
			Label: "stamp-" + c.label,
			Kind:  KindOverlayStamp,
			Inner: rect,
		})
	}

	// Embedded-pattern corners: quarter-size windows anchored at each corner.
	qw, qh := width/2, height/2
	if qw > 0 && qh > 0 {
		embeddedRects := []image.Rectangle{
			image.Rect(0, 0, qw, qh),
			image.Rect(width-qw, 0, width, qh),
			image.Rect(0, height-qh, qw, height),
			image.Rect(width-qw, height-qh, width, height),
		}
		for i, r := range embeddedRects {
			regions = append(regions, Region{
				Rect:  r,
				Label: "embedded-" + corners[i].label,
				Kind:  KindEmbedded,
			})
		}
	}

	regions = append(regions, sweepRegions(width, height)...)
	return regions
}

// sweepRegions tiles the buffer with half-size windows at 50% overlap,
// capped at maxSweepTiles.
func sweepRegions(width, height int) []Region {
	tw, th := width/2, height/2
	if tw < 32 || th < 32 {
		return nil
	}
	var regions []Region
	n := 0
	for y := 0; y+th <= height && n < maxSweepTiles; y += th / 2 {
		for x := 0; x+tw <= width && n < maxSweepTiles; x += tw / 2 {
			regions = append(regions, Region{
				Rect:  image.Rect(x, y, x+tw, y+th),
				Label: fmt.Sprintf("sweep-%d", n),
				Kind:  KindOverlayStamp,
			})
			n++
		}
	}
	return regions
}

// Crop extracts a region from the buffer, clamped to bounds.
func Crop(buf *pixel.Buffer, r Region) *pixel.Buffer {
	return buf.SubBuffer(r.Rect)
}
