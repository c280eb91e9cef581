package embed

import (
	"fmt"
	"hash/fnv"

	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// SpreadConfig controls the spread-spectrum scheme.
type SpreadConfig struct {
	// Strength is the per-pixel green-channel perturbation level.
	Strength int
}

// DefaultSpreadConfig returns the default perturbation strength.
func DefaultSpreadConfig() SpreadConfig { return SpreadConfig{Strength: 3} }

// lcg is the linear-congruential generator driving the chip sequence
// (Numerical Recipes constants).
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// chip returns the next +1/-1 chip.
func (g *lcg) chip() int {
	if g.next()>>33&1 == 1 {
		return 1
	}
	return -1
}

// SpreadSeed derives the chip-sequence seed. It depends only on the payload
// length so the extractor can regenerate the sequence by trying plausible
// lengths; the hash keeps seeds for different lengths well separated.
func SpreadSeed(payloadLen int) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "screenmark-spread:%d", payloadLen)
	return h.Sum64()
}

// EmbedSpread modulates every payload bit onto a pseudo-random +-Strength
// perturbation of the green channel. Pixel i carries bit i mod nbits with
// chip polarity from the LCG, so each bit is spread over many pixels and
// recovered by correlation.
func EmbedSpread(buf *pixel.Buffer, wire string, cfg SpreadConfig) (*pixel.Buffer, error) {
	if cfg.Strength <= 0 {
		cfg.Strength = DefaultSpreadConfig().Strength
	}
	bits := payload.BytesToBits([]byte(wire), payload.LSBFirst)
	if len(bits) == 0 {
		return nil, fmt.Errorf("spread: empty payload: %w", payload.ErrInvalidPayloadFormat)
	}
	pixels := buf.Width * buf.Height
	// Each bit needs enough pixels for the correlation to dominate noise.
	const minChipsPerBit = 16
	if pixels < len(bits)*minChipsPerBit {
		return nil, fmt.Errorf("spread: %d pixels for %d bits: %w", pixels, len(bits), ErrBufferTooSmall)
	}

	out := buf.Clone()
	gen := newLCG(SpreadSeed(len(wire)))
	for p := range pixels {
		sign := gen.chip()
		if bits[p%len(bits)] == 0 {
			sign = -sign
		}
		i := p * 4
		out.Pix[i+1] = pixel.ClampU8(float64(out.Pix[i+1]) + float64(sign*cfg.Strength))
	}
	return out, nil
}

// CorrelateSpread demodulates the green channel against the chip sequence
// for an assumed payload byte length. It returns the recovered string and
// the mean absolute per-bit correlation (normalized to [0,1]).
func CorrelateSpread(buf *pixel.Buffer, payloadLen int, cfg SpreadConfig) (string, float64) {
	if cfg.Strength <= 0 {
		cfg.Strength = DefaultSpreadConfig().Strength
	}
	nbits := payloadLen * 8
	pixels := buf.Width * buf.Height
	if nbits <= 0 || pixels < nbits {
		return "", 0
	}

	green := buf.Channel(pixel.ChannelG)
	mean, _ := pixel.MeanVariance(green)

	corr := make([]float64, nbits)
	count := make([]int, nbits)
	gen := newLCG(SpreadSeed(payloadLen))
	for p := range pixels {
		chip := float64(gen.chip())
		b := p % nbits
		corr[b] += (float64(green[p]) - mean) * chip
		count[b]++
	}

	bits := make([]byte, nbits)
	var total float64
	for b := range nbits {
		if count[b] > 0 {
			corr[b] /= float64(count[b])
		}
		if corr[b] > 0 {
			bits[b] = 1
		}
		mag := corr[b]
		if mag < 0 {
			mag = -mag
		}
		total += mag
	}
	confidence := total / float64(nbits) / float64(cfg.Strength)
	if confidence > 1 {
		confidence = 1
	}
	return string(payload.BitsToBytes(bits, payload.LSBFirst)), confidence
}
