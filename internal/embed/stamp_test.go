package embed

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/screenmark/internal/matrix"
)

// shortWire fits the matrix data zone with the full enhanced ECC intact.
const shortWire = "u1:d1:aa11:1700000000"

func TestStampPlacement_Rect(t *testing.T) {
	p := DefaultStampPlacement()
	span := p.SpanPixels()
	require.Equal(t, matrix.Size*p.ModuleSize, span)

	rect, ok := p.Rect(CornerTopLeft, 1024, 640)
	require.True(t, ok)
	assert.Equal(t, image.Rect(p.Margin, p.Margin+p.TopOffset, p.Margin+span, p.Margin+p.TopOffset+span), rect)

	rect, ok = p.Rect(CornerBottomRight, 1024, 640)
	require.True(t, ok)
	assert.Equal(t, 1024-p.Margin, rect.Max.X)
	assert.Equal(t, 640-p.Margin, rect.Max.Y)
}

func TestStampPlacement_RectDoesNotFit(t *testing.T) {
	p := DefaultStampPlacement()
	_, ok := p.Rect(CornerTopLeft, 50, 50)
	assert.False(t, ok)
}

func TestEmbedStamp_PaintsCorners(t *testing.T) {
	buf := grayBuffer(1024, 640)
	cfg := DefaultStampConfig()
	out, err := EmbedStamp(buf, shortWire, cfg)
	require.NoError(t, err)

	for _, corner := range cfg.Placement.Corners {
		rect, ok := cfg.Placement.Rect(corner, out.Width, out.Height)
		require.True(t, ok)
		// The finder corner module is always a high cell.
		r, g, b, _ := out.At(rect.Min.X, rect.Min.Y)
		assert.Equal(t, cfg.High.R, r)
		assert.Equal(t, cfg.High.G, g)
		assert.Equal(t, cfg.High.B, b)
	}
}

func TestEmbedStamp_NoCornerFits(t *testing.T) {
	buf := grayBuffer(80, 80)
	_, err := EmbedStamp(buf, shortWire, DefaultStampConfig())
	require.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestEmbedStamp_Opacity(t *testing.T) {
	buf := grayBuffer(1024, 640)
	cfg := DefaultStampConfig()
	cfg.Opacity = 128
	out, err := EmbedStamp(buf, shortWire, cfg)
	require.NoError(t, err)

	rect, _ := cfg.Placement.Rect(CornerTopLeft, out.Width, out.Height)
	r, _, _, _ := out.At(rect.Min.X, rect.Min.Y)
	// Halfway between background red 120 and stamp high 64.
	assert.InDelta(t, 92, int(r), 2)
}

func TestStampColors(t *testing.T) {
	high, low := StampColors(false)
	lumHigh, lumLow := StampColors(true)
	assert.NotEqual(t, high, lumHigh)
	assert.Greater(t, lumLow.R, high.R, "luminous palette targets dark themes")
	assert.Greater(t, high.R, low.R)
}
