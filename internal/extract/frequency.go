package extract

import (
	"math"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/payload"
)

const dctBlock = 8

// decodeFrequency reads one bit per 8x8 block from the sign of the carrier
// DCT coefficient. Confidence is the mean carrier magnitude over the decoded
// bit span relative to the embedding strength, so untouched blocks with
// near-zero coefficients score low.
func (e *Engine) decodeFrequency(shot *capture) (candidate, bool) {
	cfg := e.cfg.Frequency
	if cfg.Strength <= 0 {
		cfg = embed.DefaultFrequencyConfig()
	}
	bw := shot.buf.Width / dctBlock
	bh := shot.buf.Height / dctBlock
	if bw == 0 || bh == 0 {
		return candidate{}, false
	}

	maxBits := 32 + payload.MaxCandidateLen*8
	if maxBits > bw*bh {
		maxBits = bw * bh
	}

	bits := make([]byte, 0, maxBits)
	magnitudes := make([]float64, 0, maxBits)
	for n := range maxBits {
		bx := (n % bw) * dctBlock
		by := (n / bw) * dctBlock
		coeff, ok := embed.BlockCoefficient(shot.buf, bx, by, cfg)
		if !ok {
			break
		}
		var bit byte
		if coeff > 0 {
			bit = 1
		}
		bits = append(bits, bit)
		magnitudes = append(magnitudes, math.Abs(coeff))
	}
	if len(bits) == 0 {
		return candidate{}, false
	}

	value, ok := payload.DecodeLengthPrefixed(bits, payload.LSBFirst)
	if !ok {
		value, ok = payload.DecodeDirectBits(bits, payload.LSBFirst)
	}
	if !ok || !payload.StructurallyValid(value) {
		return candidate{}, false
	}

	used := 32 + len(value)*8
	if used > len(magnitudes) {
		used = len(magnitudes)
	}
	var sum float64
	for _, m := range magnitudes[:used] {
		sum += m
	}
	confidence := sum / float64(used) / cfg.Strength
	if confidence > 1 {
		confidence = 1
	}
	return candidate{value: value, confidence: confidence}, true
}
