package payload

import (
	"fmt"
	"strings"
)

// eccSeparator splits the redundant blocks and checksum of the enhanced code.
const eccSeparator = "|"

// ApplyRepetition triples every character of s. Decoding recovers each
// character by majority vote, so any single corrupted copy is survivable.
func ApplyRepetition(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		b.WriteByte(s[i])
		b.WriteByte(s[i])
		b.WriteByte(s[i])
	}
	return b.String()
}

// RemoveRepetition reverses ApplyRepetition by per-triplet majority vote.
// Input whose length is not a multiple of three passes through unchanged.
func RemoveRepetition(s string) string {
	if len(s) == 0 || len(s)%3 != 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) / 3)
	for i := 0; i < len(s); i += 3 {
		b.WriteByte(majority3(s[i], s[i+1], s[i+2]))
	}
	return b.String()
}

func majority3(a, bb, c byte) byte {
	if a == bb || a == c {
		return a
	}
	if bb == c {
		return bb
	}
	// No agreement; keep the first copy.
	return a
}

// Checksum returns the two-hex-digit additive checksum of s (sum of byte
// values mod 256).
func Checksum(s string) string {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	return fmt.Sprintf("%02x", sum%256)
}

// ApplyEnhanced produces the stronger wire form used by the matrix code:
// two independently repeated copies plus an additive checksum, separated by
// "|". Either block alone can be majority-decoded; the checksum guards
// against a consistent mis-read.
func ApplyEnhanced(s string) string {
	rep := ApplyRepetition(s)
	return rep + eccSeparator + rep + eccSeparator + Checksum(s)
}

// RemoveEnhanced reverses ApplyEnhanced. The first block is majority-voted;
// if a checksum segment survives it must match the decoded content. A second
// block, when present and needed, is tried before giving up.
func RemoveEnhanced(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty enhanced block: %w", ErrInvalidPayloadFormat)
	}
	parts := strings.Split(s, eccSeparator)
	decoded := RemoveRepetition(parts[0])
	if len(parts) < 3 {
		// Truncated transmission: no checksum survived, accept the vote.
		return decoded, nil
	}
	if Checksum(decoded) == parts[2] {
		return decoded, nil
	}
	// First block disagrees with the checksum; the second copy may be intact.
	alt := RemoveRepetition(parts[1])
	if Checksum(alt) == parts[2] {
		return alt, nil
	}
	return "", fmt.Errorf("checksum %q matches neither block: %w", parts[2], ErrChecksumMismatch)
}
