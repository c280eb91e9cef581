package embed

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// EmbedLSB writes a length-prefixed bitstream into the low bit of R, G and B
// cyclically across the whole buffer, skipping alpha.
func EmbedLSB(buf *pixel.Buffer, wire string) (*pixel.Buffer, error) {
	bits := payload.EncodeLengthPrefixed(wire, payload.LSBFirst)
	capacity := buf.Width * buf.Height * 3
	if capacity < len(bits) {
		return nil, fmt.Errorf("lsb: need %d slots, have %d: %w", len(bits), capacity, ErrBufferTooSmall)
	}
	out := buf.Clone()
	slot := 0
	for i := 0; i < len(out.Pix) && slot < len(bits); i += 4 {
		for c := range 3 {
			if slot >= len(bits) {
				break
			}
			out.Pix[i+c] = out.Pix[i+c]&0xfe | bits[slot]
			slot++
		}
	}
	return out, nil
}

// ExtractLSBBits reads back the RGB low-bit stream written by EmbedLSB.
func ExtractLSBBits(buf *pixel.Buffer, maxBits int) []byte {
	if maxBits <= 0 || maxBits > buf.Width*buf.Height*3 {
		maxBits = buf.Width * buf.Height * 3
	}
	bits := make([]byte, 0, maxBits)
	for i := 0; i < len(buf.Pix) && len(bits) < maxBits; i += 4 {
		for c := range 3 {
			if len(bits) >= maxBits {
				break
			}
			bits = append(bits, buf.Pix[i+c]&1)
		}
	}
	return bits
}

// Quadrants splits a buffer extent into its four quadrant rectangles in
// top-left, top-right, bottom-left, bottom-right order.
func Quadrants(width, height int) [4]image.Rectangle {
	hw, hh := width/2, height/2
	return [4]image.Rectangle{
		image.Rect(0, 0, hw, hh),
		image.Rect(hw, 0, width, hh),
		image.Rect(0, hh, hw, height),
		image.Rect(hw, hh, width, height),
	}
}

// EmbedRegional writes a repetition-coded, length-prefixed bitstream into the
// blue-channel low bit of each of the four quadrants independently. Any one
// intact quadrant is sufficient to decode.
func EmbedRegional(buf *pixel.Buffer, wire string) (*pixel.Buffer, error) {
	coded := payload.ApplyRepetition(wire)
	bits := payload.EncodeLengthPrefixed(coded, payload.LSBFirst)

	quads := Quadrants(buf.Width, buf.Height)
	for _, q := range quads {
		if q.Dx()*q.Dy() < len(bits) {
			return nil, fmt.Errorf("regional: quadrant %v holds %d slots, need %d: %w",
				q, q.Dx()*q.Dy(), len(bits), ErrBufferTooSmall)
		}
	}

	out := buf.Clone()
	for _, q := range quads {
		writeQuadrantBits(out, q, bits)
	}
	return out, nil
}

func writeQuadrantBits(buf *pixel.Buffer, q image.Rectangle, bits []byte) {
	slot := 0
	for y := q.Min.Y; y < q.Max.Y && slot < len(bits); y++ {
		for x := q.Min.X; x < q.Max.X && slot < len(bits); x++ {
			i := buf.Index(x, y)
			buf.Pix[i+2] = buf.Pix[i+2]&0xfe | bits[slot]
			slot++
		}
	}
}

// QuadrantBits reads the blue-channel low bits of one quadrant in write
// order.
func QuadrantBits(buf *pixel.Buffer, q image.Rectangle, maxBits int) []byte {
	q = q.Intersect(buf.Bounds())
	if q.Empty() {
		return nil
	}
	if maxBits <= 0 || maxBits > q.Dx()*q.Dy() {
		maxBits = q.Dx() * q.Dy()
	}
	bits := make([]byte, 0, maxBits)
	for y := q.Min.Y; y < q.Max.Y && len(bits) < maxBits; y++ {
		for x := q.Min.X; x < q.Max.X && len(bits) < maxBits; x++ {
			i := buf.Index(x, y)
			bits = append(bits, buf.Pix[i+2]&1)
		}
	}
	return bits
}
