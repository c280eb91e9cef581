package embed

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/screenmark/internal/matrix"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// Corner identifies a stamp anchor corner.
type Corner int

const (
	CornerTopLeft Corner = iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

// Default stamp palettes. The regular palette sits in the dark band so the
// stamp hides in window chrome; the luminous palette targets dark UI themes.
var (
	stampHigh    = color.RGBA{R: 64, G: 64, B: 72, A: 255}
	stampLow     = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	luminousHigh = color.RGBA{R: 228, G: 228, B: 236, A: 255}
	luminousLow  = color.RGBA{R: 178, G: 178, B: 186, A: 255}
)

// StampPlacement is the single source of truth for where stamps land. The
// embedder and every decode-side candidate generator consume the same
// values, so embed and decode cannot drift.
type StampPlacement struct {
	// Margin is the distance from the buffer edge to the stamp in pixels.
	Margin int

	// TopOffset shifts top-corner stamps down to dodge the reserved UI
	// strip (menu bar / title bar).
	TopOffset int

	// ModuleSize is the rendered size of one matrix module in pixels.
	ModuleSize int

	// Corners lists the anchor corners that receive a stamp.
	Corners []Corner
}

// DefaultStampPlacement stamps all four corners with 3-pixel modules.
func DefaultStampPlacement() StampPlacement {
	return StampPlacement{
		Margin:     12,
		TopOffset:  28,
		ModuleSize: 3,
		Corners:    []Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight},
	}
}

// SpanPixels returns the stamp edge length in pixels.
func (p StampPlacement) SpanPixels() int { return matrix.Size * p.ModuleSize }

// Rect returns the pixel rectangle a stamp occupies at the given corner of a
// width x height buffer, or false when it does not fit.
func (p StampPlacement) Rect(corner Corner, width, height int) (image.Rectangle, bool) {
	span := p.SpanPixels()
	var x, y int
	switch corner {
	case CornerTopLeft:
		x, y = p.Margin, p.Margin+p.TopOffset
	case CornerTopRight:
		x, y = width-p.Margin-span, p.Margin+p.TopOffset
	case CornerBottomLeft:
		x, y = p.Margin, height-p.Margin-span
	case CornerBottomRight:
		x, y = width-p.Margin-span, height-p.Margin-span
	default:
		return image.Rectangle{}, false
	}
	r := image.Rect(x, y, x+span, y+span)
	if x < 0 || y < 0 || r.Max.X > width || r.Max.Y > height {
		return image.Rectangle{}, false
	}
	return r, true
}

// StampConfig controls pattern-stamp rendering.
type StampConfig struct {
	Placement StampPlacement
	High      color.RGBA
	Low       color.RGBA
	Opacity   uint8
}

// DefaultStampConfig returns the regular palette at the default placement.
func DefaultStampConfig() StampConfig {
	return StampConfig{
		Placement: DefaultStampPlacement(),
		High:      stampHigh,
		Low:       stampLow,
		Opacity:   255,
	}
}

// EmbedStamp renders the payload's watermark matrix at every configured
// corner. The scheme fails only if no corner fits.
func EmbedStamp(buf *pixel.Buffer, wire string, cfg StampConfig) (*pixel.Buffer, error) {
	if cfg.High == (color.RGBA{}) && cfg.Low == (color.RGBA{}) {
		def := DefaultStampConfig()
		cfg.High, cfg.Low = def.High, def.Low
	}
	if cfg.Opacity == 0 {
		cfg.Opacity = 255
	}
	m, err := matrix.Build(wire)
	if err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}

	out := buf.Clone()
	placed := 0
	for _, corner := range cfg.Placement.Corners {
		rect, ok := cfg.Placement.Rect(corner, out.Width, out.Height)
		if !ok {
			continue
		}
		renderStamp(out, m, rect, cfg)
		placed++
	}
	if placed == 0 {
		return nil, fmt.Errorf("stamp: no corner fits a %dpx stamp in %dx%d: %w",
			cfg.Placement.SpanPixels(), buf.Width, buf.Height, ErrBufferTooSmall)
	}
	return out, nil
}

// renderStamp paints one matrix into rect, blending toward the background by
// opacity.
func renderStamp(buf *pixel.Buffer, m *matrix.Matrix, rect image.Rectangle, cfg StampConfig) {
	ms := cfg.Placement.ModuleSize
	alpha := float64(cfg.Opacity) / 255
	for my := range matrix.Size {
		for mx := range matrix.Size {
			c := cfg.Low
			if m.Get(mx, my) == 1 {
				c = cfg.High
			}
			for dy := range ms {
				for dx := range ms {
					x := rect.Min.X + mx*ms + dx
					y := rect.Min.Y + my*ms + dy
					if !buf.InBounds(x, y) {
						continue
					}
					i := buf.Index(x, y)
					buf.Pix[i] = blend(buf.Pix[i], c.R, alpha)
					buf.Pix[i+1] = blend(buf.Pix[i+1], c.G, alpha)
					buf.Pix[i+2] = blend(buf.Pix[i+2], c.B, alpha)
				}
			}
		}
	}
}

func blend(bg, fg uint8, alpha float64) uint8 {
	return pixel.ClampU8(float64(bg)*(1-alpha) + float64(fg)*alpha)
}

// StampColors exposes the palette the stamp was rendered with so decode-side
// classification can measure proximity to the same reference values.
func StampColors(luminous bool) (high, low color.RGBA) {
	if luminous {
		return luminousHigh, luminousLow
	}
	return stampHigh, stampLow
}
