package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// AddGaussianNoise perturbs every channel with zero-mean gaussian noise of
// the given standard deviation. The seed keeps tests deterministic.
func AddGaussianNoise(buf *pixel.Buffer, sigma float64, seed int64) *pixel.Buffer {
	rng := rand.New(rand.NewSource(seed))
	out := buf.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		for c := range 3 {
			out.Pix[i+c] = pixel.ClampU8(float64(out.Pix[i+c]) + rng.NormFloat64()*sigma)
		}
	}
	return out
}

// SimulateRecapture approximates photographing a screen: a mild blur, a
// slight downscale-upscale cycle that loses high frequencies, and sensor
// noise.
func SimulateRecapture(buf *pixel.Buffer, seed int64) *pixel.Buffer {
	img := buf.ToImage()
	blurred := imaging.Blur(img, 0.6)
	down := imaging.Resize(blurred, buf.Width*9/10, buf.Height*9/10, imaging.Linear)
	up := imaging.Resize(down, buf.Width, buf.Height, imaging.Linear)
	return AddGaussianNoise(pixel.FromImage(up), 2.0, seed)
}

// EmbedInBackdrop pastes the screen into a larger dark scene at an offset,
// the shape geometry correction is expected to find and rectify.
func EmbedInBackdrop(screen *pixel.Buffer, marginX, marginY int) *pixel.Buffer {
	w := screen.Width + 2*marginX
	h := screen.Height + 2*marginY
	scene := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(scene, scene.Bounds(), &image.Uniform{C: color.RGBA{R: 18, G: 16, B: 20, A: 255}},
		image.Point{}, draw.Src)
	draw.Draw(scene, image.Rect(marginX, marginY, marginX+screen.Width, marginY+screen.Height),
		screen.ToImage(), image.Point{}, draw.Src)
	return pixel.FromImage(scene)
}
