package payload

import (
	"strings"
	"unicode/utf8"
)

// BitOrder selects the per-byte bit ordering of a serialized bitstream.
// Steganographic schemes write LSB-first; matrix-code data is MSB-first.
type BitOrder int

const (
	LSBFirst BitOrder = iota
	MSBFirst
)

// lengthPrefixBits is the size of the message-length prefix (message length
// in bytes, unsigned).
const lengthPrefixBits = 32

// BytesToBits expands data into one byte per bit (0 or 1) in the given order.
func BytesToBits(data []byte, order BitOrder) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := range 8 {
			shift := i
			if order == MSBFirst {
				shift = 7 - i
			}
			bits = append(bits, (b>>shift)&1)
		}
	}
	return bits
}

// BitsToBytes packs a bit slice back into bytes, dropping any trailing
// partial byte.
func BitsToBytes(bits []byte, order BitOrder) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for j := range 8 {
			shift := j
			if order == MSBFirst {
				shift = 7 - j
			}
			if bits[i+j] != 0 {
				b |= 1 << shift
			}
		}
		out = append(out, b)
	}
	return out
}

// EncodeLengthPrefixed serializes s as a 32-bit byte-length prefix followed
// by the UTF-8 message bytes, all in the given bit order.
func EncodeLengthPrefixed(s string, order BitOrder) []byte {
	n := uint32(len(s))
	header := []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	bits := BytesToBits(header, order)
	return append(bits, BytesToBits([]byte(s), order)...)
}

// DecodeLengthPrefixed reverses EncodeLengthPrefixed. It fails when the
// prefix is implausible or the message bytes do not form a printable string.
func DecodeLengthPrefixed(bits []byte, order BitOrder) (string, bool) {
	if len(bits) < lengthPrefixBits+8 {
		return "", false
	}
	header := BitsToBytes(bits[:lengthPrefixBits], order)
	n := int(uint32(header[0])<<24 | uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3]))
	if n <= 0 || n > MaxCandidateLen {
		return "", false
	}
	if len(bits) < lengthPrefixBits+n*8 {
		return "", false
	}
	msg := BitsToBytes(bits[lengthPrefixBits:lengthPrefixBits+n*8], order)
	s := string(msg)
	if !printable(s) {
		return "", false
	}
	return s, true
}

// DecodeDirectBits interprets bits as raw bytes with no length prefix,
// stopping at the first unprintable byte. It accepts the result only when it
// resembles a payload: contains a colon and has a plausible length. This is
// the fallback when the structured decode fails.
func DecodeDirectBits(bits []byte, order BitOrder) (string, bool) {
	raw := BitsToBytes(bits, order)
	end := 0
	for end < len(raw) && raw[end] >= 0x20 && raw[end] < 0x7f {
		end++
	}
	s := string(raw[:end])
	if !strings.Contains(s, ":") {
		return "", false
	}
	if len(s) < MinCandidateLen || len(s) > 200 {
		return "", false
	}
	return s, true
}

// printable reports whether s is valid UTF-8 made of printable runes
// (allowing the ECC separator and space).
func printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
