package extract

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/screenmark/internal/embed"
	"github.com/MeKo-Tech/screenmark/internal/enhance"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
	"github.com/MeKo-Tech/screenmark/internal/testutil"
)

const testWire = "u1:d1:aa11:1700000000"

func flatGray(w, h int) *pixel.Buffer {
	return pixel.NewUniform(w, h, color.RGBA{R: 120, G: 130, B: 140, A: 255})
}

func newTestEngine(mutate func(*Config)) *Engine {
	cfg := DefaultConfig()
	cfg.ScreenDetection = false
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg, nil, nil)
}

func TestExtract_RegionalScreenshot(t *testing.T) {
	marked, err := embed.EmbedRegional(flatGray(200, 200), testWire)
	require.NoError(t, err)

	engine := newTestEngine(func(cfg *Config) { cfg.SimpleMode = true })
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Equal(t, "quadrant-lsb", res.Method)
	assert.Greater(t, res.Confidence, 0.9, "identical quadrant copies vote unanimously")
}

func TestExtract_SurvivesQuadrantLoss(t *testing.T) {
	marked, err := embed.EmbedRegional(flatGray(200, 200), testWire)
	require.NoError(t, err)

	// Destroy the top-left copy entirely.
	q := embed.Quadrants(marked.Width, marked.Height)[0]
	for y := q.Min.Y; y < q.Max.Y; y++ {
		for x := q.Min.X; x < q.Max.X; x++ {
			i := marked.Index(x, y)
			marked.Pix[i+2] |= 1
		}
	}

	engine := newTestEngine(func(cfg *Config) { cfg.SimpleMode = true })
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Equal(t, "quadrant-lsb", res.Method)
}

func TestExtract_StampOnSyntheticScreen(t *testing.T) {
	screen := testutil.SyntheticScreen(testutil.MediumScreen)
	marked, err := embed.EmbedStamp(screen, testWire, embed.DefaultStampConfig())
	require.NoError(t, err)

	engine := newTestEngine(nil)
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Contains(t, []string{"roi-reader", "overlay-scan", "stamp-sampling"}, res.Method)
}

func TestExtract_StampSurvivesResizeCycle(t *testing.T) {
	marked, err := embed.EmbedStamp(flatGray(512, 512), testWire, embed.DefaultStampConfig())
	require.NoError(t, err)

	// Halve and restore the capture, as a lossy rescale in a sharing pipeline
	// would.
	half := imaging.Resize(marked.ToImage(), 256, 256, imaging.Linear)
	restored := pixel.FromImage(imaging.Resize(half, 512, 512, imaging.Linear))

	engine := newTestEngine(nil)
	res, err := engine.Extract(restored)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Contains(t, []string{"roi-reader", "overlay-scan", "stamp-sampling"}, res.Method)
}

func TestExtract_StampSurvivesRecapture(t *testing.T) {
	screen := testutil.SyntheticScreen(testutil.MediumScreen)
	marked, err := embed.EmbedStamp(screen, testWire, embed.DefaultStampConfig())
	require.NoError(t, err)

	engine := newTestEngine(nil)
	res, err := engine.Extract(testutil.SimulateRecapture(marked, 7))
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
}

func TestExtract_PhotographedBackdrop(t *testing.T) {
	marked, err := embed.EmbedStamp(flatGray(640, 400), testWire, embed.DefaultStampConfig())
	require.NoError(t, err)
	scene := testutil.EmbedInBackdrop(marked, 64, 48)

	// Geometry correction has to find the screen in the scene before any
	// stamp strategy can land on the placement rects.
	engine := newTestEngine(func(cfg *Config) { cfg.ScreenDetection = true })
	res, err := engine.Extract(scene)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
}

func TestSampleEnhancedStamp_ScaledRendition(t *testing.T) {
	marked, err := embed.EmbedStamp(flatGray(512, 512), testWire, embed.DefaultStampConfig())
	require.NoError(t, err)

	regions := enhance.CandidateRegions(512, 512, embed.DefaultStampPlacement())
	region := regions[0]
	require.Equal(t, enhance.KindOverlayStamp, region.Kind)
	require.Equal(t, "stamp-top-left", region.Label)

	cropRect := region.Rect.Intersect(marked.Bounds())
	crop := enhance.Crop(marked, region)

	// Nearest-neighbor double of the crop stands in for an upsampled
	// enhancement rendition; the stamp rect must be rescaled to match.
	variant := pixel.New(crop.Width*2, crop.Height*2)
	for y := range variant.Height {
		for x := range variant.Width {
			r, g, b, a := crop.At(x/2, y/2)
			variant.Set(x, y, r, g, b, a)
		}
	}

	cand, ok := sampleEnhancedStamp(variant, crop, cropRect, region, 0.8)
	require.True(t, ok)
	assert.Equal(t, testWire, cand.value)
	assert.InDelta(t, 1.0, cand.confidence, 1e-9)
}

func TestSampleEnhancedStamp_NoKnownRect(t *testing.T) {
	buf := flatGray(64, 64)
	region := enhance.Region{Rect: buf.Bounds(), Label: "sweep-0", Kind: enhance.KindOverlayStamp}
	_, ok := sampleEnhancedStamp(buf, buf, buf.Bounds(), region, 0.8)
	assert.False(t, ok)
}

func TestExtract_FrequencyScheme(t *testing.T) {
	marked, err := embed.EmbedFrequency(flatGray(512, 512), testWire, embed.DefaultFrequencyConfig())
	require.NoError(t, err)

	engine := newTestEngine(func(cfg *Config) { cfg.SimpleMode = true })
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Equal(t, "frequency", res.Method)
}

func TestExtract_SpreadSpectrum(t *testing.T) {
	marked, err := embed.EmbedSpread(flatGray(256, 256), testWire, embed.DefaultSpreadConfig())
	require.NoError(t, err)

	engine := newTestEngine(nil)
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, testWire, res.Payload)
	assert.Equal(t, "spread-correlation", res.Method)
}

func TestExtract_HybridOnSyntheticScreen(t *testing.T) {
	screen := testutil.SyntheticScreen(testutil.MediumScreen)
	embedder := embed.NewEngine(embed.DefaultConfig())
	p := testutil.ShortPayload()
	marked, err := embedder.EmbedHybrid(screen, p)
	require.NoError(t, err)

	engine := newTestEngine(nil)
	res, err := engine.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, p.String(), res.Payload)
	assert.NotEmpty(t, res.Method)
}

func TestExtract_EmptyBuffer(t *testing.T) {
	engine := newTestEngine(nil)
	_, err := engine.Extract(&pixel.Buffer{})
	require.ErrorIs(t, err, ErrDecodeNotFound)
}

func TestExtract_UnmarkedFlatBuffer(t *testing.T) {
	engine := newTestEngine(nil)
	_, err := engine.Extract(flatGray(128, 128))
	require.ErrorIs(t, err, ErrDecodeNotFound, "a constant capture cannot carry a payload")
}

func TestExtract_UnmarkedSyntheticScreen(t *testing.T) {
	engine := newTestEngine(nil)
	_, err := engine.Extract(testutil.SyntheticScreen(testutil.SmallScreen))
	require.ErrorIs(t, err, ErrDecodeNotFound)
}

func TestExtract_ParallelMatchesSequential(t *testing.T) {
	marked, err := embed.EmbedRegional(flatGray(200, 200), testWire)
	require.NoError(t, err)

	seq := newTestEngine(func(cfg *Config) { cfg.SimpleMode = true })
	par := newTestEngine(func(cfg *Config) {
		cfg.SimpleMode = true
		cfg.MaxWorkers = 4
	})

	want, err := seq.Extract(marked)
	require.NoError(t, err)
	got, err := par.Extract(marked)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEffectiveThreshold_FlatCapture(t *testing.T) {
	engine := newTestEngine(nil)
	got := engine.effectiveThreshold(flatGray(128, 128))
	assert.InDelta(t, 0.35*minMult, got, 1e-6)
}

func TestEffectiveThreshold_Capped(t *testing.T) {
	engine := newTestEngine(func(cfg *Config) { cfg.ConfidenceThreshold = 0.9 })

	// Maximal texture: alternating black/white columns.
	buf := pixel.New(128, 128)
	for y := range 128 {
		for x := range 128 {
			v := uint8(0)
			if x%2 == 0 {
				v = 255
			}
			buf.SetRGB(x, y, v, v, v)
		}
	}
	assert.InDelta(t, 0.95, engine.effectiveThreshold(buf), 1e-6)
}

func TestVarianceMultiplier_Range(t *testing.T) {
	assert.InDelta(t, minMult, varianceMultiplier(flatGray(64, 64)), 1e-9)

	buf := pixel.New(64, 64)
	for y := range 64 {
		for x := range 64 {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			buf.SetRGB(x, y, v, v, v)
		}
	}
	mult := varianceMultiplier(buf)
	assert.Greater(t, mult, minMult)
	assert.LessOrEqual(t, mult, maxMult)
}

func TestVoteBits(t *testing.T) {
	streams := [][]byte{
		{1, 0, 1, 1},
		{1, 0, 0, 1},
		{1, 0, 1, 0},
	}
	voted, agreement := voteBits(streams)
	assert.Equal(t, []byte{1, 0, 1, 1}, voted)
	assert.InDelta(t, 10.0/12.0, agreement, 1e-9)
}

func TestVoteBits_UnevenLengths(t *testing.T) {
	streams := [][]byte{
		{1, 1},
		{1},
	}
	voted, _ := voteBits(streams)
	assert.Equal(t, []byte{1, 1}, voted)
}

func TestSimpleModeSkipsSlowStrategies(t *testing.T) {
	// Spread-spectrum is excluded from simple mode, so a spread-only capture
	// must miss.
	marked, err := embed.EmbedSpread(flatGray(256, 256), testWire, embed.DefaultSpreadConfig())
	require.NoError(t, err)

	engine := newTestEngine(func(cfg *Config) { cfg.SimpleMode = true })
	_, err = engine.Extract(marked)
	require.ErrorIs(t, err, ErrDecodeNotFound)
}
