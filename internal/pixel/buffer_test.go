package pixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(4, 3)
	require.Equal(t, 4, b.Width)
	require.Equal(t, 3, b.Height)
	require.Len(t, b.Pix, 4*3*4)
	// Alpha initialized opaque.
	for i := 3; i < len(b.Pix); i += 4 {
		assert.Equal(t, uint8(255), b.Pix[i])
	}
}

func TestNew_NegativeDimensions(t *testing.T) {
	b := New(-1, 5)
	assert.True(t, b.Empty())
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		pixLen  int
		wantErr bool
	}{
		{"valid", 2, 2, 16, false},
		{"short buffer", 2, 2, 15, true},
		{"long buffer", 2, 2, 17, true},
		{"negative width", -1, 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRaw(tt.width, tt.height, make([]uint8, tt.pixLen))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBufferSizeMismatch)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFromImage_ToImage_RoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	buf := FromImage(img)
	require.Equal(t, 3, buf.Width)
	require.Equal(t, 2, buf.Height)

	r, g, b, a := buf.At(1, 1)
	assert.Equal(t, uint8(10), r)
	assert.Equal(t, uint8(20), g)
	assert.Equal(t, uint8(30), b)
	assert.Equal(t, uint8(255), a)

	back := buf.ToImage()
	assert.Equal(t, img.Pix, back.Pix)
}

func TestFromImage_NonZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 7, 8, 9))
	buf := FromImage(img)
	assert.Equal(t, 3, buf.Width)
	assert.Equal(t, 2, buf.Height)
}

func TestClone_Independent(t *testing.T) {
	b := NewUniform(2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	c := b.Clone()
	c.Pix[0] = 99
	assert.Equal(t, uint8(1), b.Pix[0])
}

func TestAtSet_OutOfBounds(t *testing.T) {
	b := New(2, 2)
	r, g, bl, a := b.At(5, 5)
	assert.Zero(t, r+g+bl+a)
	b.Set(5, 5, 1, 2, 3, 4) // must not panic
}

func TestSubBuffer(t *testing.T) {
	b := New(10, 10)
	b.SetRGB(5, 5, 42, 0, 0)

	sub := b.SubBuffer(image.Rect(4, 4, 8, 8))
	require.Equal(t, 4, sub.Width)
	require.Equal(t, 4, sub.Height)
	r, _, _, _ := sub.At(1, 1)
	assert.Equal(t, uint8(42), r)
}

func TestSubBuffer_Clamped(t *testing.T) {
	b := New(4, 4)
	sub := b.SubBuffer(image.Rect(-5, -5, 2, 2))
	assert.Equal(t, 2, sub.Width)
	assert.Equal(t, 2, sub.Height)

	empty := b.SubBuffer(image.Rect(10, 10, 20, 20))
	assert.True(t, empty.Empty())
}

func TestChannel(t *testing.T) {
	b := NewUniform(2, 2, color.RGBA{R: 11, G: 22, B: 33, A: 255})
	assert.Equal(t, []uint8{11, 11, 11, 11}, b.Channel(ChannelR))
	assert.Equal(t, []uint8{33, 33, 33, 33}, b.Channel(ChannelB))
}

func TestLuminance(t *testing.T) {
	b := NewUniform(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	assert.Equal(t, uint8(255), b.Luminance()[0])

	b = NewUniform(1, 1, color.RGBA{A: 255})
	assert.Equal(t, uint8(0), b.Luminance()[0])

	// BT.601 green weight dominates.
	b = NewUniform(1, 1, color.RGBA{G: 100, A: 255})
	assert.Equal(t, uint8(59), b.Luminance()[0])
}

func TestClampU8(t *testing.T) {
	assert.Equal(t, uint8(0), ClampU8(-3))
	assert.Equal(t, uint8(255), ClampU8(300))
	assert.Equal(t, uint8(128), ClampU8(127.6))
}

func TestMeanVariance(t *testing.T) {
	mean, variance := MeanVariance([]uint8{100, 100, 100})
	assert.InDelta(t, 100, mean, 1e-9)
	assert.InDelta(t, 0, variance, 1e-9)

	mean, variance = MeanVariance([]uint8{0, 200})
	assert.InDelta(t, 100, mean, 1e-9)
	assert.InDelta(t, 10000, variance, 1e-9)

	mean, variance = MeanVariance(nil)
	assert.Zero(t, mean)
	assert.Zero(t, variance)
}
