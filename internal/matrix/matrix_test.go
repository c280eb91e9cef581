package matrix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DecodeData_RoundTrip(t *testing.T) {
	wire := "u1:d1:aa11:1700000000"
	m, err := Build(wire)
	require.NoError(t, err)

	got, err := DecodeData(m)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestBuild_TruncatedECCStillDecodes(t *testing.T) {
	// Long enough that the second ECC block is cut off by the data zone, but
	// the primary block and its separator still fit.
	wire := "jdoe:workstation-7:aa11bb22:1700000000"
	m, err := Build(wire)
	require.NoError(t, err)

	got, err := DecodeData(m)
	require.NoError(t, err)
	assert.Equal(t, wire, got)
}

func TestBuild_Overflow(t *testing.T) {
	wire := strings.Repeat("a:", 40) + "1700000000" // far beyond the data zone
	_, err := Build(wire)
	require.ErrorIs(t, err, ErrDataOverflow)
}

func TestStructure_Finders(t *testing.T) {
	m := NewStructured()

	// Finder cores are set at all three corners.
	assert.Equal(t, uint8(1), m.Get(3, 3))
	assert.Equal(t, uint8(1), m.Get(Size-4, 3))
	assert.Equal(t, uint8(1), m.Get(3, Size-4))
	// Inner ring is clear.
	assert.Equal(t, uint8(0), m.Get(1, 1))
	// Outer ring is set.
	assert.Equal(t, uint8(0), m.Get(7, 7), "separator clear")
	assert.Equal(t, uint8(1), m.Get(0, 0))
}

func TestStructure_AlignmentAndTiming(t *testing.T) {
	m := NewStructured()

	// Alignment square centered on (18,18): ring set, inner ring clear,
	// center set.
	assert.Equal(t, uint8(1), m.Get(16, 16))
	assert.Equal(t, uint8(0), m.Get(17, 17))
	assert.Equal(t, uint8(1), m.Get(18, 18))

	// Timing lines alternate along row/column 6.
	assert.Equal(t, uint8(1), m.Get(10, 6))
	assert.Equal(t, uint8(0), m.Get(9, 6))
	assert.Equal(t, uint8(1), m.Get(6, 10))
	assert.Equal(t, uint8(0), m.Get(6, 11))
}

func TestReservedCells_NotOverwrittenByBuild(t *testing.T) {
	wire := "u1:d1:aa11:1700000000"
	m, err := Build(wire)
	require.NoError(t, err)

	ref := NewStructured()
	for y := range Size {
		for x := range Size {
			if !ref.Reserved(x, y) {
				continue
			}
			assert.Equal(t, ref.Get(x, y), m.Get(x, y), "structural cell (%d,%d)", x, y)
		}
	}
}

func TestValidateFinder(t *testing.T) {
	m := NewStructured()
	assert.True(t, ValidateFinder(m, 0.8))
	assert.True(t, ValidateFinder(m, 0), "zero tolerance uses the default")

	// Corrupt most of the finder area.
	for y := range 7 {
		for x := range 7 {
			if (x+y)%2 == 0 {
				m.Set(x, y, 1-m.Get(x, y))
			}
		}
	}
	assert.False(t, ValidateFinder(m, 0.8))
}

func TestSetGet_OutOfRange(t *testing.T) {
	m := NewStructured()
	m.Set(-1, 0, 1)
	m.Set(Size, Size, 1)
	assert.Equal(t, uint8(0), m.Get(-1, 0))
	assert.True(t, m.Reserved(-1, -1), "out of range is treated as reserved")
}

func TestString_Renders(t *testing.T) {
	m := NewStructured()
	s := m.String()
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	require.Len(t, lines, Size)
	assert.Len(t, lines[0], Size)
	assert.Equal(t, byte('#'), lines[0][0], "finder corner is set")
}
