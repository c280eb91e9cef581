package embed

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// FrequencyConfig controls the frequency-domain scheme.
type FrequencyConfig struct {
	// Strength is the magnitude forced onto the carrier coefficient.
	Strength float64

	// CoeffU and CoeffV select the mid-frequency DCT coefficient that
	// carries the bit. Too low shows as blocking, too high dies in
	// recompression.
	CoeffU int
	CoeffV int
}

// DefaultFrequencyConfig returns the default carrier settings.
func DefaultFrequencyConfig() FrequencyConfig {
	return FrequencyConfig{Strength: 10, CoeffU: 3, CoeffV: 2}
}

const dctBlock = 8

// EmbedFrequency writes one payload bit per 8x8 luminance block by forcing
// the sign of a fixed mid-frequency DCT coefficient, then redistributes the
// resulting luminance delta into R, G and B by their luminance weights.
func EmbedFrequency(buf *pixel.Buffer, wire string, cfg FrequencyConfig) (*pixel.Buffer, error) {
	if cfg.Strength <= 0 {
		cfg = DefaultFrequencyConfig()
	}
	bits := payload.EncodeLengthPrefixed(wire, payload.LSBFirst)
	bw := buf.Width / dctBlock
	bh := buf.Height / dctBlock
	if bw*bh < len(bits) {
		return nil, fmt.Errorf("frequency: %d blocks for %d bits: %w", bw*bh, len(bits), ErrBufferTooSmall)
	}

	out := buf.Clone()
	luma := out.Luminance()
	for n, bit := range bits {
		bx := (n % bw) * dctBlock
		by := (n / bw) * dctBlock
		embedBlockBit(out, luma, bx, by, bit, cfg)
	}
	return out, nil
}

func embedBlockBit(buf *pixel.Buffer, luma []uint8, bx, by int, bit uint8, cfg FrequencyConfig) {
	var block [dctBlock][dctBlock]float64
	for y := range dctBlock {
		for x := range dctBlock {
			block[y][x] = float64(luma[(by+y)*buf.Width+bx+x])
		}
	}
	coeffs := dct8x8(block)
	target := cfg.Strength
	if bit == 0 {
		target = -cfg.Strength
	}
	coeffs[cfg.CoeffV][cfg.CoeffU] = target
	modified := idct8x8(coeffs)

	for y := range dctBlock {
		for x := range dctBlock {
			delta := modified[y][x] - block[y][x]
			if delta == 0 {
				continue
			}
			px, py := bx+x, by+y
			i := buf.Index(px, py)
			buf.Pix[i] = pixel.ClampU8(float64(buf.Pix[i]) + delta*0.299*3)
			buf.Pix[i+1] = pixel.ClampU8(float64(buf.Pix[i+1]) + delta*0.587*3)
			buf.Pix[i+2] = pixel.ClampU8(float64(buf.Pix[i+2]) + delta*0.114*3)
		}
	}
}

// BlockCoefficient re-derives the carrier coefficient of the block at
// (bx,by) from the current luminance. The extractor reads the bit from its
// sign.
func BlockCoefficient(buf *pixel.Buffer, bx, by int, cfg FrequencyConfig) (float64, bool) {
	if cfg.Strength <= 0 {
		cfg = DefaultFrequencyConfig()
	}
	if bx < 0 || by < 0 || bx+dctBlock > buf.Width || by+dctBlock > buf.Height {
		return 0, false
	}
	var block [dctBlock][dctBlock]float64
	for y := range dctBlock {
		for x := range dctBlock {
			r, g, b, _ := buf.At(bx+x, by+y)
			block[y][x] = 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
		}
	}
	coeffs := dct8x8(block)
	return coeffs[cfg.CoeffV][cfg.CoeffU], true
}

// dct8x8 computes the type-II DCT of an 8x8 block.
func dct8x8(block [dctBlock][dctBlock]float64) [dctBlock][dctBlock]float64 {
	var out [dctBlock][dctBlock]float64
	for v := range dctBlock {
		for u := range dctBlock {
			var sum float64
			for y := range dctBlock {
				for x := range dctBlock {
					sum += block[y][x] *
						math.Cos(float64(2*x+1)*float64(u)*math.Pi/16) *
						math.Cos(float64(2*y+1)*float64(v)*math.Pi/16)
				}
			}
			out[v][u] = 0.25 * dctAlpha(u) * dctAlpha(v) * sum
		}
	}
	return out
}

// idct8x8 computes the inverse (type-III) DCT of an 8x8 coefficient block.
func idct8x8(coeffs [dctBlock][dctBlock]float64) [dctBlock][dctBlock]float64 {
	var out [dctBlock][dctBlock]float64
	for y := range dctBlock {
		for x := range dctBlock {
			var sum float64
			for v := range dctBlock {
				for u := range dctBlock {
					sum += dctAlpha(u) * dctAlpha(v) * coeffs[v][u] *
						math.Cos(float64(2*x+1)*float64(u)*math.Pi/16) *
						math.Cos(float64(2*y+1)*float64(v)*math.Pi/16)
				}
			}
			out[y][x] = 0.25 * sum
		}
	}
	return out
}

func dctAlpha(k int) float64 {
	if k == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}
