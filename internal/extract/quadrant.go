package extract

import (
	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// decodeQuadrantLSB recovers the steganographic schemes. It votes the four
// quadrant copies of the regional-redundant stream bit by bit, so any intact
// quadrant carries the decode, then falls back to the whole-buffer LSB
// stream.
func (e *Engine) decodeQuadrantLSB(shot *capture) (candidate, bool) {
	if cand, ok := e.decodeRegionalVote(shot); ok {
		return cand, true
	}
	return e.decodeWholeBufferLSB(shot)
}

func (e *Engine) decodeRegionalVote(shot *capture) (candidate, bool) {
	// Repetition-coded payload plus the 32-bit length prefix.
	maxBits := 32 + payload.MaxCandidateLen*3*8

	quads := embed.Quadrants(shot.buf.Width, shot.buf.Height)
	streams := make([][]byte, 0, len(quads))
	for _, q := range quads {
		if bits := embed.QuadrantBits(shot.buf, q, maxBits); len(bits) > 0 {
			streams = append(streams, bits)
		}
	}
	if len(streams) == 0 {
		return candidate{}, false
	}

	voted, agreement := voteBits(streams)
	coded, ok := payload.DecodeLengthPrefixed(voted, payload.LSBFirst)
	if !ok {
		coded, ok = payload.DecodeDirectBits(voted, payload.LSBFirst)
	}
	if !ok {
		return candidate{}, false
	}
	value := payload.RemoveRepetition(coded)
	if !payload.StructurallyValid(value) {
		return candidate{}, false
	}
	return candidate{value: value, confidence: agreement}, true
}

// voteBits majority-votes per bit position across the streams and reports the
// mean agreement with the winning bit as confidence.
func voteBits(streams [][]byte) ([]byte, float64) {
	length := 0
	for _, s := range streams {
		if len(s) > length {
			length = len(s)
		}
	}
	voted := make([]byte, length)
	var agree, total float64
	for i := range length {
		ones, n := 0, 0
		for _, s := range streams {
			if i >= len(s) {
				continue
			}
			ones += int(s[i])
			n++
		}
		if n == 0 {
			continue
		}
		if ones*2 > n {
			voted[i] = 1
			agree += float64(ones)
		} else {
			agree += float64(n - ones)
		}
		total += float64(n)
	}
	if total == 0 {
		return voted, 0
	}
	return voted, agree / total
}

// decodeWholeBufferLSB reads the RGB low-bit stream written across the full
// buffer. A clean digital screenshot either decodes exactly or not at all, so
// a structural pass gets the flat reader-grade confidence.
func (e *Engine) decodeWholeBufferLSB(shot *capture) (candidate, bool) {
	bits := embed.ExtractLSBBits(shot.buf, 32+payload.MaxCandidateLen*8)
	value, ok := payload.DecodeLengthPrefixed(bits, payload.LSBFirst)
	if !ok {
		value, ok = payload.DecodeDirectBits(bits, payload.LSBFirst)
	}
	if !ok || !payload.StructurallyValid(value) {
		return candidate{}, false
	}
	return candidate{value: value, confidence: readerConfidence}, true
}
