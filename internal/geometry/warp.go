package geometry

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// WarpQuad perspective-warps the quadrilateral region of src onto an
// axis-aligned rectangle. The output is sized to the longer of each pair of
// opposite edges so no content is squeezed.
func WarpQuad(src *pixel.Buffer, q Quad) (*pixel.Buffer, error) {
	w := int(math.Round(math.Max(dist(q[0], q[1]), dist(q[3], q[2]))))
	h := int(math.Round(math.Max(dist(q[0], q[3]), dist(q[1], q[2]))))
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("target %dx%d from quad %v: %w", w, h, q, ErrUnsupportedGeometry)
	}
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			if dist(q[i], q[j]) < 1 {
				return nil, fmt.Errorf("corners %d and %d coincide: %w", i, j, ErrUnsupportedGeometry)
			}
		}
	}

	// Inverse mapping: destination rectangle corners back to the source quad.
	dstQuad := Quad{
		{0, 0},
		{float64(w - 1), 0},
		{float64(w - 1), float64(h - 1)},
		{0, float64(h - 1)},
	}
	hom, ok := ComputeHomography(dstQuad, q)
	if !ok {
		return nil, fmt.Errorf("homography is singular: %w", ErrUnsupportedGeometry)
	}

	out := pixel.New(w, h)
	for y := range h {
		for x := range w {
			sx, sy := hom.Apply(float64(x), float64(y))
			r, g, b, a := bilinearSample(src, sx, sy)
			i := out.Index(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = a
		}
	}
	return out, nil
}

// bilinearSample samples src at a fractional coordinate; out-of-bounds reads
// return opaque black.
func bilinearSample(src *pixel.Buffer, x, y float64) (uint8, uint8, uint8, uint8) {
	if x < 0 || y < 0 || x > float64(src.Width-1) || y > float64(src.Height-1) {
		return 0, 0, 0, 255
	}
	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= src.Width {
		x1 = src.Width - 1
	}
	if y1 >= src.Height {
		y1 = src.Height - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	mix := func(c00, c10, c01, c11 uint8) uint8 {
		top := float64(c00) + (float64(c10)-float64(c00))*fx
		bot := float64(c01) + (float64(c11)-float64(c01))*fx
		return pixel.ClampU8(top + (bot-top)*fy)
	}
	i00 := src.Index(x0, y0)
	i10 := src.Index(x1, y0)
	i01 := src.Index(x0, y1)
	i11 := src.Index(x1, y1)
	return mix(src.Pix[i00], src.Pix[i10], src.Pix[i01], src.Pix[i11]),
		mix(src.Pix[i00+1], src.Pix[i10+1], src.Pix[i01+1], src.Pix[i11+1]),
		mix(src.Pix[i00+2], src.Pix[i10+2], src.Pix[i01+2], src.Pix[i11+2]),
		mix(src.Pix[i00+3], src.Pix[i10+3], src.Pix[i01+3], src.Pix[i11+3])
}
