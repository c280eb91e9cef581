// Package mcode wraps a generic matrix-code reader behind a small backend
// interface. The default backend is gozxing's QR reader; a nil backend is a
// normal condition and simply removes the reader strategy from the
// extraction chain.
package mcode

import (
	"context"
	"image"
)

// Point is an integer point in image coordinates.
type Point struct {
	X int
	Y int
}

// Result is one decoded symbol.
type Result struct {
	Value      string
	Points     []Point
	BBox       image.Rectangle
	Confidence float64 // -1 when the backend provides none
}

// Options controls backend decoding behavior.
type Options struct {
	// TryHarder enables the backend's exhaustive search mode.
	TryHarder bool

	// Pure hints that the image is a clean synthetic matrix rather than a
	// photo, enabling faster grid sampling in backends that support it.
	Pure bool
}

// Backend is a pluggable matrix-code decoder.
type Backend interface {
	Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error)
}
