package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/screenmark/internal/payload"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
}

func TestSamplePayloads_Valid(t *testing.T) {
	assert.True(t, payload.StructurallyValid(SamplePayload().String()))
	assert.True(t, payload.StructurallyValid(ShortPayload().String()))
	assert.Equal(t, "u1:d1:aa11:1700000000", ShortPayload().String())
}

func TestSyntheticScreen_HasTexture(t *testing.T) {
	buf := SyntheticScreen(SmallScreen)
	require.Equal(t, SmallScreen.Width, buf.Width)
	require.Equal(t, SmallScreen.Height, buf.Height)

	_, variance := pixel.MeanVariance(buf.Luminance())
	assert.Greater(t, variance, 100.0, "a desktop capture is not flat")
}

func TestFlatScreen(t *testing.T) {
	buf := FlatScreen(ScreenSize{32, 16}, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	r, g, b, a := buf.At(31, 15)
	assert.Equal(t, uint8(10), r)
	assert.Equal(t, uint8(20), g)
	assert.Equal(t, uint8(30), b)
	assert.Equal(t, uint8(255), a)
}

func TestAddGaussianNoise_Deterministic(t *testing.T) {
	buf := FlatScreen(ScreenSize{64, 64}, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	a := AddGaussianNoise(buf, 3.0, 42)
	b := AddGaussianNoise(buf, 3.0, 42)
	assert.Equal(t, a.Pix, b.Pix, "same seed, same noise")

	c := AddGaussianNoise(buf, 3.0, 43)
	assert.NotEqual(t, a.Pix, c.Pix)

	_, variance := pixel.MeanVariance(a.Luminance())
	assert.Greater(t, variance, 1.0)
}

func TestSimulateRecapture_PreservesDimensions(t *testing.T) {
	buf := SyntheticScreen(SmallScreen)
	degraded := SimulateRecapture(buf, 7)
	assert.Equal(t, buf.Width, degraded.Width)
	assert.Equal(t, buf.Height, degraded.Height)
	assert.NotEqual(t, buf.Pix, degraded.Pix)
}

func TestEmbedInBackdrop(t *testing.T) {
	screen := FlatScreen(ScreenSize{100, 60}, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	scene := EmbedInBackdrop(screen, 40, 30)
	assert.Equal(t, 180, scene.Width)
	assert.Equal(t, 120, scene.Height)

	r, _, _, _ := scene.At(5, 5)
	assert.Equal(t, uint8(18), r, "backdrop is dark")
	r, _, _, _ = scene.At(90, 60)
	assert.Equal(t, uint8(200), r, "screen content pasted at offset")
}
