package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepetition_RoundTrip(t *testing.T) {
	assert.Equal(t, "aaabbbccc", ApplyRepetition("abc"))
	assert.Equal(t, "abc", RemoveRepetition("aaabbbccc"))
	assert.Equal(t, "", ApplyRepetition(""))
}

func TestRemoveRepetition_MajorityVote(t *testing.T) {
	// One corrupted copy per triplet is recoverable.
	assert.Equal(t, "abc", RemoveRepetition("aXabbBcQc"))
	// No agreement keeps the first copy.
	assert.Equal(t, "x", RemoveRepetition("xyz"))
}

func TestRemoveRepetition_NonTripleLength(t *testing.T) {
	// Not a multiple of three passes through unchanged.
	assert.Equal(t, "abcd", RemoveRepetition("abcd"))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "61", Checksum("a")) // 0x61
	assert.Equal(t, Checksum("abc"), Checksum("cba"))
	assert.NotEqual(t, Checksum("abc"), Checksum("abd"))
	assert.Len(t, Checksum("anything at all"), 2)
}

func TestEnhanced_RoundTrip(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	coded := ApplyEnhanced(wire)

	got, err := RemoveEnhanced(coded)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestRemoveEnhanced_CorruptedFirstBlock(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	coded := ApplyEnhanced(wire)

	// Corrupt two copies of the first character so the vote in block one
	// produces the wrong character; the second block must take over.
	corrupted := "XX" + coded[2:]
	got, err := RemoveEnhanced(corrupted)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestRemoveEnhanced_Truncated(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	coded := ApplyEnhanced(wire)

	// Cut off mid second block: no checksum survived, the vote is accepted.
	truncated := coded[:len(ApplyRepetition(wire))+10]
	got, err := RemoveEnhanced(truncated)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestRemoveEnhanced_ChecksumMismatch(t *testing.T) {
	wire := "jdoe:ws-7:1700000000"
	rep := ApplyRepetition(wire)
	// Both blocks consistently wrong relative to the checksum.
	bad := rep + "|" + rep + "|ff"
	if Checksum(wire) == "ff" {
		bad = rep + "|" + rep + "|00"
	}
	_, err := RemoveEnhanced(bad)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestRemoveEnhanced_Empty(t *testing.T) {
	_, err := RemoveEnhanced("")
	require.ErrorIs(t, err, ErrInvalidPayloadFormat)
}
