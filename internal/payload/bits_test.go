package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToBits_Orders(t *testing.T) {
	// 0b10000001
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 1}, BytesToBits([]byte{0x81}, LSBFirst))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 1}, BytesToBits([]byte{0x81}, MSBFirst))
	// 0b00000010 differs between orders.
	assert.Equal(t, []byte{0, 1, 0, 0, 0, 0, 0, 0}, BytesToBits([]byte{0x02}, LSBFirst))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 0}, BytesToBits([]byte{0x02}, MSBFirst))
}

func TestBitsToBytes_DropsPartialByte(t *testing.T) {
	bits := BytesToBits([]byte("hi"), LSBFirst)
	bits = append(bits, 1, 0, 1) // trailing partial byte
	assert.Equal(t, []byte("hi"), BitsToBytes(bits, LSBFirst))
}

func TestLengthPrefixed_RoundTrip(t *testing.T) {
	for _, order := range []BitOrder{LSBFirst, MSBFirst} {
		wire := "jdoe:ws-7:1700000000"
		bits := EncodeLengthPrefixed(wire, order)
		require.Len(t, bits, 32+len(wire)*8)

		got, ok := DecodeLengthPrefixed(bits, order)
		require.True(t, ok)
		assert.Equal(t, wire, got)
	}
}

func TestDecodeLengthPrefixed_TrailingNoise(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	bits := EncodeLengthPrefixed(wire, LSBFirst)
	bits = append(bits, make([]byte, 500)...)

	got, ok := DecodeLengthPrefixed(bits, LSBFirst)
	require.True(t, ok)
	assert.Equal(t, wire, got)
}

func TestDecodeLengthPrefixed_Rejects(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, ok := DecodeLengthPrefixed(make([]byte, 16), LSBFirst)
		assert.False(t, ok)
	})
	t.Run("zero length", func(t *testing.T) {
		_, ok := DecodeLengthPrefixed(make([]byte, 200), LSBFirst)
		assert.False(t, ok)
	})
	t.Run("implausible length", func(t *testing.T) {
		bits := EncodeLengthPrefixed("x", LSBFirst)
		// Flip high bits of the prefix to an enormous length.
		for i := range 8 {
			bits[i] = 1
		}
		_, ok := DecodeLengthPrefixed(bits, LSBFirst)
		assert.False(t, ok)
	})
	t.Run("unprintable content", func(t *testing.T) {
		bits := EncodeLengthPrefixed("\x01\x02\x03\x04\x05\x06", LSBFirst)
		_, ok := DecodeLengthPrefixed(bits, LSBFirst)
		assert.False(t, ok)
	})
}

func TestDecodeDirectBits(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	bits := BytesToBits([]byte(wire), LSBFirst)
	// NUL padding terminates the scan.
	bits = append(bits, make([]byte, 64)...)

	got, ok := DecodeDirectBits(bits, LSBFirst)
	require.True(t, ok)
	assert.Equal(t, wire, got)
}

func TestDecodeDirectBits_Rejects(t *testing.T) {
	t.Run("no colon", func(t *testing.T) {
		_, ok := DecodeDirectBits(BytesToBits([]byte("plainstring"), LSBFirst), LSBFirst)
		assert.False(t, ok)
	})
	t.Run("too short", func(t *testing.T) {
		_, ok := DecodeDirectBits(BytesToBits([]byte("a:b"), LSBFirst), LSBFirst)
		assert.False(t, ok)
	})
}
