package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// ScreenSize represents common capture dimensions.
type ScreenSize struct {
	Width  int
	Height int
}

var (
	SmallScreen  = ScreenSize{640, 400}
	MediumScreen = ScreenSize{1024, 640}
	LargeScreen  = ScreenSize{1920, 1080}
)

// SyntheticScreen renders a plausible desktop capture: a diagonal gradient
// wallpaper, a menu bar, and a window with title text. The texture gives the
// presence check and the adaptive threshold something realistic to measure.
func SyntheticScreen(size ScreenSize) *pixel.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))

	// Wallpaper gradient.
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			r := uint8(40 + 60*x/size.Width)
			g := uint8(60 + 80*y/size.Height)
			b := uint8(110 + 80*(x+y)/(size.Width+size.Height))
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	// Menu bar.
	draw.Draw(img, image.Rect(0, 0, size.Width, 24),
		&image.Uniform{C: color.RGBA{R: 235, G: 235, B: 238, A: 255}}, image.Point{}, draw.Src)

	// Application window with title bar.
	win := image.Rect(size.Width/8, size.Height/6, size.Width*7/8, size.Height*5/6)
	draw.Draw(img, win, &image.Uniform{C: color.RGBA{R: 250, G: 250, B: 252, A: 255}}, image.Point{}, draw.Src)
	title := image.Rect(win.Min.X, win.Min.Y, win.Max.X, win.Min.Y+28)
	draw.Draw(img, title, &image.Uniform{C: color.RGBA{R: 210, G: 212, B: 218, A: 255}}, image.Point{}, draw.Src)
	drawLabel(img, "Quarterly Report - Draft", win.Min.X+10, win.Min.Y+18)
	drawLabel(img, "Confidential", win.Min.X+10, win.Min.Y+60)

	return pixel.FromImage(img)
}

// FlatScreen returns a uniform buffer, useful for presence-check and
// capacity tests where texture would get in the way.
func FlatScreen(size ScreenSize, c color.RGBA) *pixel.Buffer {
	buf := pixel.New(size.Width, size.Height)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = c.R
		buf.Pix[i+1] = c.G
		buf.Pix[i+2] = c.B
		buf.Pix[i+3] = 255
	}
	return buf
}

// drawLabel renders text with the basic 7x13 face.
func drawLabel(img *image.RGBA, label string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: color.RGBA{R: 30, G: 30, B: 34, A: 255}},
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
