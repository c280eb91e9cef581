package enhance

import (
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/screenmark/internal/matrix"
	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// Config holds the enhancement tunables.
type Config struct {
	// StretchLowPct / StretchHighPct are the contrast-stretch percentiles
	// of the blue-channel path.
	StretchLowPct  float64
	StretchHighPct float64

	// Gamma for the blue-channel path.
	Gamma float64

	// SharpenAmount for the unsharp mask.
	SharpenAmount float64

	// MorphKernel is the open/close kernel size.
	MorphKernel int

	// CLAHE settings for the grayscale fallback path.
	CLAHE CLAHEConfig

	// BlueUpsample / GrayUpsample are the nearest-neighbor upsample factors
	// of the two paths.
	BlueUpsample int
	GrayUpsample int

	// QRPass enables the matrix-code specific reinforcement pass.
	QRPass bool
}

// DefaultConfig returns the enhancement defaults.
func DefaultConfig() Config {
	return Config{
		StretchLowPct:  1,
		StretchHighPct: 99,
		Gamma:          0.8,
		SharpenAmount:  1.0,
		MorphKernel:    3,
		CLAHE:          DefaultCLAHEConfig(),
		BlueUpsample:   3,
		GrayUpsample:   2,
		QRPass:         true,
	}
}

// Enhancer runs the region enhancement pipelines.
type Enhancer struct {
	cfg Config
}

// NewEnhancer creates an enhancer, falling back to defaults for zero config.
func NewEnhancer(cfg Config) *Enhancer {
	if cfg.BlueUpsample <= 0 {
		cfg = DefaultConfig()
	}
	return &Enhancer{cfg: cfg}
}

// EnhanceBlue runs the blue-channel path preferred for matrix-code regions:
// blue extraction, percentile contrast stretch, bilateral denoise, unsharp
// sharpening, gamma, Otsu binarization, small-kernel open+close, the
// QR-specific pass, and a nearest-neighbor upsample.
func (e *Enhancer) EnhanceBlue(buf *pixel.Buffer) *pixel.Buffer {
	if buf.Empty() {
		return buf
	}
	w, h := buf.Width, buf.Height
	plane := buf.Channel(pixel.ChannelB)
	plane = StretchPercentile(plane, e.cfg.StretchLowPct, e.cfg.StretchHighPct)
	plane = DenoiseBilateral(plane, w, h)
	plane = UnsharpMask(plane, w, h, e.cfg.SharpenAmount)
	plane = GammaCorrect(plane, e.cfg.Gamma)
	plane = Binarize(plane, OtsuThreshold(plane))
	plane = Open(plane, w, h, e.cfg.MorphKernel)
	plane = Close(plane, w, h, e.cfg.MorphKernel)
	if e.cfg.QRPass {
		plane = qrReinforce(plane, w, h)
	}
	return upsamplePlane(plane, w, h, e.cfg.BlueUpsample)
}

// EnhanceGray runs the grayscale fallback path: luminance, tiled CLAHE, Otsu
// binarization, a 3x3 close, the optional QR pass, and a smaller upsample.
func (e *Enhancer) EnhanceGray(buf *pixel.Buffer) *pixel.Buffer {
	if buf.Empty() {
		return buf
	}
	w, h := buf.Width, buf.Height
	plane := buf.Luminance()
	plane = CLAHE(plane, w, h, e.cfg.CLAHE)
	plane = Binarize(plane, OtsuThreshold(plane))
	plane = Close(plane, w, h, 3)
	if e.cfg.QRPass {
		plane = qrReinforce(plane, w, h)
	}
	return upsamplePlane(plane, w, h, e.cfg.GrayUpsample)
}

// upsamplePlane converts a plane to a gray buffer and scales it up with
// nearest-neighbor resampling so module edges stay hard.
func upsamplePlane(plane []uint8, w, h, factor int) *pixel.Buffer {
	if factor < 1 {
		factor = 1
	}
	gray := PlaneToBuffer(plane, w, h)
	if factor == 1 {
		return gray
	}
	scaled := imaging.Resize(gray.ToImage(), w*factor, h*factor, imaging.NearestNeighbor)
	return pixel.FromImage(scaled)
}

// PlaneToBuffer replicates a single plane into an opaque gray RGBA buffer.
func PlaneToBuffer(plane []uint8, w, h int) *pixel.Buffer {
	buf := pixel.New(w, h)
	for i, v := range plane {
		j := i * 4
		buf.Pix[j] = v
		buf.Pix[j+1] = v
		buf.Pix[j+2] = v
	}
	return buf
}

// qrReinforce looks for the finder pattern at the matrix scale implied by
// the region size. When the top-left corner matches the template above 70%,
// the matching modules are redrawn crisply and module-sized neighborhoods
// are median-normalized to kill speckle smaller than a module.
func qrReinforce(plane []uint8, w, h int) []uint8 {
	module := minInt(w, h) / matrix.Size
	if module < 1 {
		return plane
	}

	const finderSpan = 7
	match, total := 0, 0
	for my := range finderSpan {
		for mx := range finderSpan {
			want := finderModule(mx, my)
			got := sampleModule(plane, w, h, mx, my, module)
			if want == got {
				match++
			}
			total++
		}
	}
	if float64(match)/float64(total) >= 0.7 {
		for my := range finderSpan {
			for mx := range finderSpan {
				paintModule(plane, w, h, mx, my, module, finderModule(mx, my))
			}
		}
	}

	plane = UnsharpMask(plane, w, h, 0.5)
	window := module
	if window%2 == 0 {
		window++
	}
	if window >= 3 {
		plane = MedianFilter(plane, w, h, window)
	}
	return Binarize(plane, 127)
}

// finderModule mirrors the canonical finder template: ring and 3x3 core on.
func finderModule(mx, my int) uint8 {
	onRing := mx == 0 || my == 0 || mx == 6 || my == 6
	inCore := mx >= 2 && mx <= 4 && my >= 2 && my <= 4
	if onRing || inCore {
		return 255
	}
	return 0
}

// sampleModule returns the majority value of one module cell.
func sampleModule(plane []uint8, w, h, mx, my, module int) uint8 {
	on, count := 0, 0
	for dy := range module {
		for dx := range module {
			x := mx*module + dx
			y := my*module + dy
			if x >= w || y >= h {
				continue
			}
			if plane[y*w+x] > 127 {
				on++
			}
			count++
		}
	}
	if count > 0 && on*2 >= count {
		return 255
	}
	return 0
}

func paintModule(plane []uint8, w, h, mx, my, module int, v uint8) {
	for dy := range module {
		for dx := range module {
			x := mx*module + dx
			y := my*module + dy
			if x >= w || y >= h {
				continue
			}
			plane[y*w+x] = v
		}
	}
}
