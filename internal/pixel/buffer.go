// Package pixel provides the RGBA pixel buffer that all embedding and
// extraction stages operate on, plus channel and color-space accessors.
package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrBufferSizeMismatch indicates raw pixel data whose length does not match
// the declared dimensions.
var ErrBufferSizeMismatch = errors.New("pixel buffer size mismatch")

// Channel selects one of the four 8-bit channels of a Buffer.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

// Buffer is an owned RGBA pixel grid. Pix holds width*height*4 bytes in
// R,G,B,A order, row-major. Stages never share a Buffer; each stage consumes
// one and produces a new one.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New creates a zeroed buffer of the given size. Alpha is initialized to 255.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	b := &Buffer{Width: width, Height: height, Pix: make([]uint8, width*height*4)}
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = 255
	}
	return b
}

// NewUniform creates a buffer filled with a single color.
func NewUniform(width, height int, c color.RGBA) *Buffer {
	b := New(width, height)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
	return b
}

// FromRaw wraps raw RGBA bytes into a buffer, validating the size invariant.
func FromRaw(width, height int, pix []uint8) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d: %w", width, height, ErrBufferSizeMismatch)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("have %d bytes, want %d for %dx%d: %w",
			len(pix), width*height*4, width, height, ErrBufferSizeMismatch)
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any image.Image into an owned RGBA buffer.
func FromImage(img image.Image) *Buffer {
	if img == nil {
		return New(0, 0)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{Width: bounds.Dx(), Height: bounds.Dy(), Pix: rgba.Pix}
}

// ToImage converts the buffer into a standalone image.RGBA copy.
func (b *Buffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool { return b == nil || b.Width <= 0 || b.Height <= 0 }

// Bounds returns the buffer extent as an image.Rectangle anchored at (0,0).
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// InBounds reports whether (x,y) addresses a pixel.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Index returns the Pix offset of the R byte of pixel (x,y). The caller must
// ensure the coordinate is in bounds.
func (b *Buffer) Index(x, y int) int { return (y*b.Width + x) * 4 }

// At returns the four channel values of pixel (x,y); out-of-bounds reads
// return zeros.
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	if !b.InBounds(x, y) {
		return 0, 0, 0, 0
	}
	i := b.Index(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Set writes the four channel values of pixel (x,y); out-of-bounds writes are
// ignored.
func (b *Buffer) Set(x, y int, r, g, bl, a uint8) {
	if !b.InBounds(x, y) {
		return
	}
	i := b.Index(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// SetRGB writes color channels and leaves alpha untouched.
func (b *Buffer) SetRGB(x, y int, r, g, bl uint8) {
	if !b.InBounds(x, y) {
		return
	}
	i := b.Index(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// SubBuffer returns an owned copy of the given rectangle, clamped to the
// buffer bounds. An empty intersection yields an empty buffer.
func (b *Buffer) SubBuffer(rect image.Rectangle) *Buffer {
	rect = rect.Intersect(b.Bounds())
	if rect.Empty() {
		return New(0, 0)
	}
	out := New(rect.Dx(), rect.Dy())
	for y := range rect.Dy() {
		srcOff := b.Index(rect.Min.X, rect.Min.Y+y)
		dstOff := out.Index(0, y)
		copy(out.Pix[dstOff:dstOff+rect.Dx()*4], b.Pix[srcOff:srcOff+rect.Dx()*4])
	}
	return out
}

// Channel extracts one channel as a width*height plane.
func (b *Buffer) Channel(c Channel) []uint8 {
	plane := make([]uint8, b.Width*b.Height)
	off := int(c)
	for i := range plane {
		plane[i] = b.Pix[i*4+off]
	}
	return plane
}

// Luminance returns the BT.601 luma plane (0.299 R + 0.587 G + 0.114 B).
func (b *Buffer) Luminance() []uint8 {
	plane := make([]uint8, b.Width*b.Height)
	for i := range plane {
		j := i * 4
		plane[i] = LumaU8(b.Pix[j], b.Pix[j+1], b.Pix[j+2])
	}
	return plane
}

// LumaU8 computes BT.601 luma for a single pixel.
func LumaU8(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return ClampU8(y)
}

// ClampU8 clamps a float value into [0,255] and rounds to the nearest byte.
func ClampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// MeanVariance computes the mean and variance of a channel plane.
func MeanVariance(plane []uint8) (mean, variance float64) {
	if len(plane) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range plane {
		sum += float64(v)
	}
	mean = sum / float64(len(plane))
	for _, v := range plane {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(plane))
	return mean, variance
}
