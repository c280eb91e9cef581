package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_Canonical(t *testing.T) {
	p := Payload{
		SubjectID:    "jdoe",
		DeviceLabel:  "workstation-7",
		DeviceUUID:   "aa11-bb22",
		EpochSeconds: 1700000000,
	}
	assert.Equal(t, "jdoe:workstation-7:aa11-bb22:1700000000", p.String())
}

func TestString_SanitizesFields(t *testing.T) {
	p := Payload{
		SubjectID:    "  jdoe ",
		DeviceLabel:  "lab:pc",
		DeviceUUID:   "x",
		EpochSeconds: 1,
	}
	// Colons in fields must not break the wire form.
	assert.Equal(t, "jdoe:lab-pc:x:1", p.String())
}

func TestString_NormalizesUnicode(t *testing.T) {
	// e + combining acute vs precomposed e-acute must serialize identically.
	decomposed := Payload{SubjectID: "rémy", DeviceLabel: "d", DeviceUUID: "u", EpochSeconds: 1}
	precomposed := Payload{SubjectID: "rémy", DeviceLabel: "d", DeviceUUID: "u", EpochSeconds: 1}
	assert.Equal(t, precomposed.String(), decomposed.String())
}

func TestParse_RoundTrip(t *testing.T) {
	p := Payload{
		SubjectID:    "jdoe",
		DeviceLabel:  "workstation-7",
		DeviceUUID:   "aa11",
		EpochSeconds: 1700000000,
	}
	got, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "a:b"},
		{"empty field", "a::c:1"},
		{"bad timestamp", "a:b:c:soon"},
		{"negative timestamp", "a:b:c:-5"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.ErrorIs(t, err, ErrInvalidPayloadFormat)
		})
	}
}

func TestValidate_TimestampWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)

	require.NoError(t, Validate("a:b:c:1700000000", now))
	// Just inside the clock-skew allowance.
	require.NoError(t, Validate("a:b:c:1700003599", now))
	// Future beyond skew.
	require.Error(t, Validate("a:b:c:1700003601", now))
	// Older than ten years.
	require.Error(t, Validate("a:b:c:1", now))
}

func TestStructurallyValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"canonical", "jdoe:workstation:1700000000", true},
		{"four fields", "a:bb:cc:1700000000", true},
		{"too short", "a:b:c", false},
		{"two fields", "aaaaa:bbbbbbbb", false},
		{"empty field", "aaaa::cc:1700000000", false},
		{"no colons", "aaaaaaaaaaaaaaaa", false},
		{"empty", "", false},
		{"binary noise with colons", "\x9bX\xe3:\x02\x11:\x84T\x19q", false},
		{"control characters", "a\x00b:cc:1700000000", false},
		{"invalid utf-8", "a\xff\xfe:cc:1700000000", false},
		{"unicode subject", "rémy:laptop:1700000000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StructurallyValid(tt.input))
		})
	}
}

func TestStructurallyValid_LengthBounds(t *testing.T) {
	long := "a:b:" + string(make([]byte, MaxCandidateLen))
	assert.False(t, StructurallyValid(long))
}
