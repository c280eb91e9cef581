// Package geometry detects a photographed screen inside an arbitrary capture
// and perspective-rectifies it. Three strategies are tried in order: an
// optional external rectangle detector, a classical edge/contour pipeline,
// and a Hough-line fallback. When nothing scores above the acceptance
// threshold the input passes through unchanged.
package geometry

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// ErrUnsupportedGeometry indicates a degenerate quadrilateral (collapsed or
// self-intersecting corners) that cannot be rectified.
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// Point is a 2D coordinate in float pixel space.
type Point struct {
	X float64
	Y float64
}

// Quad is a quadrilateral in consistent winding order: top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// Candidate is a detected quadrilateral with its composite score and the
// strategy that produced it.
type Candidate struct {
	Quad   Quad
	Score  float64
	Source string
}

// RectangleDetector is the optional external capability: given a buffer,
// return up to maxCount quadrilaterals with confidences. Implementations are
// supplied by the caller (e.g. a platform vision framework); absence is a
// normal condition, not an error.
type RectangleDetector interface {
	DetectRectangles(buf *pixel.Buffer, maxCount int) ([]Candidate, error)
}

// Config holds the corrector tunables.
type Config struct {
	// AcceptScore is the minimum composite score for a candidate to be
	// rectified. Below it the capture passes through untouched.
	AcceptScore float64

	// MaxDetectorQuads bounds how many quads the external detector may
	// return.
	MaxDetectorQuads int

	// Canny thresholds for the classical pipeline (8-bit gradient
	// magnitude space).
	EdgeLowThreshold  float64
	EdgeHighThreshold float64

	// BlurSigma is the Gaussian pre-smoothing sigma.
	BlurSigma float64

	// SimplifyEpsilonFrac scales the Douglas-Peucker tolerance by the
	// contour perimeter.
	SimplifyEpsilonFrac float64

	// MinComponentArea discards tiny edge components before tracing.
	MinComponentArea int

	// HoughThreshold is the minimum accumulator count for a Hough line.
	HoughThreshold int
}

// DefaultConfig returns the corrector defaults.
func DefaultConfig() Config {
	return Config{
		AcceptScore:         0.2,
		MaxDetectorQuads:    4,
		EdgeLowThreshold:    40,
		EdgeHighThreshold:   100,
		BlurSigma:           1.4,
		SimplifyEpsilonFrac: 0.02,
		MinComponentArea:    64,
		HoughThreshold:      80,
	}
}

// Corrector runs screen detection and rectification.
type Corrector struct {
	cfg      Config
	detector RectangleDetector
}

// NewCorrector creates a corrector. detector may be nil.
func NewCorrector(cfg Config, detector RectangleDetector) *Corrector {
	if cfg.AcceptScore <= 0 {
		cfg = DefaultConfig()
	}
	return &Corrector{cfg: cfg, detector: detector}
}

// Correct finds the best screen quadrilateral and warps it to an
// axis-aligned rectangle. The second return reports whether a correction was
// applied; when false the input buffer is returned as-is.
func (c *Corrector) Correct(buf *pixel.Buffer) (*pixel.Buffer, bool) {
	if buf.Empty() {
		return buf, false
	}
	cand, ok := c.BestCandidate(buf)
	if !ok {
		return buf, false
	}
	out, err := WarpQuad(buf, cand.Quad)
	if err != nil {
		slog.Debug("screen rectification failed", "source", cand.Source, "error", err)
		return buf, false
	}
	slog.Debug("screen rectified", "source", cand.Source, "score", cand.Score,
		"width", out.Width, "height", out.Height)
	return out, true
}

// BestCandidate runs the detection strategies in order and returns the first
// one that produces a candidate above the acceptance score.
func (c *Corrector) BestCandidate(buf *pixel.Buffer) (Candidate, bool) {
	strategies := []func(*pixel.Buffer) []Candidate{
		c.detectorCandidates,
		c.contourCandidates,
		c.houghCandidates,
	}
	imgArea := float64(buf.Width * buf.Height)
	for _, strat := range strategies {
		cands := strat(buf)
		best := Candidate{}
		for _, cand := range cands {
			cand.Score = ScoreQuad(cand.Quad, imgArea)
			if cand.Score > best.Score {
				best = cand
			}
		}
		if best.Score > c.cfg.AcceptScore {
			return best, true
		}
	}
	return Candidate{}, false
}

// detectorCandidates queries the external rectangle detector when present.
func (c *Corrector) detectorCandidates(buf *pixel.Buffer) []Candidate {
	if c.detector == nil {
		return nil
	}
	cands, err := c.detector.DetectRectangles(buf, c.cfg.MaxDetectorQuads)
	if err != nil {
		// Missing or failing capability falls through to the classical path.
		slog.Debug("rectangle detector unavailable", "error", err)
		return nil
	}
	for i := range cands {
		cands[i].Quad = SortWinding(cands[i].Quad)
		cands[i].Source = "detector"
	}
	return cands
}

// ScoreQuad computes the composite candidate score:
// 0.4*normalizedArea + 0.3*aspectRatioScore + 0.3*rectangularity.
func ScoreQuad(q Quad, imageArea float64) float64 {
	area := quadArea(q)
	if area <= 0 || imageArea <= 0 {
		return 0
	}
	normArea := area / imageArea
	if normArea > 1 {
		normArea = 1
	}
	return 0.4*normArea + 0.3*aspectRatioScore(q) + 0.3*rectangularity(q)
}

// commonAspects are the screen aspect ratios the score peaks at.
var commonAspects = []float64{16.0 / 9.0, 4.0 / 3.0, 16.0 / 10.0, 21.0 / 9.0}

// aspectRatioScore peaks at 1.0 when the quad's width/height ratio matches a
// common screen ratio (orientation-insensitive).
func aspectRatioScore(q Quad) float64 {
	w := (dist(q[0], q[1]) + dist(q[3], q[2])) / 2
	h := (dist(q[0], q[3]) + dist(q[1], q[2])) / 2
	if w <= 0 || h <= 0 {
		return 0
	}
	ar := w / h
	if ar < 1 {
		ar = 1 / ar
	}
	best := 0.0
	for _, ref := range commonAspects {
		s := 1 - math.Abs(ar-ref)/ref
		if s > best {
			best = s
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// rectangularity measures how close the corner angles are to 90 degrees:
// 1 - meanDeviation/maxDeviation.
func rectangularity(q Quad) float64 {
	const maxDev = 90.0
	var total float64
	for i := range 4 {
		prev := q[(i+3)%4]
		cur := q[i]
		next := q[(i+1)%4]
		angle := cornerAngle(prev, cur, next)
		total += math.Abs(angle - 90)
	}
	dev := total / 4
	if dev > maxDev {
		dev = maxDev
	}
	return 1 - dev/maxDev
}

// cornerAngle returns the interior angle at cur in degrees.
func cornerAngle(prev, cur, next Point) float64 {
	v1x, v1y := prev.X-cur.X, prev.Y-cur.Y
	v2x, v2y := next.X-cur.X, next.Y-cur.Y
	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// quadArea computes the absolute polygon area by the shoelace formula.
func quadArea(q Quad) float64 {
	var sum float64
	for i := range 4 {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// SortWinding orders four arbitrary points into top-left, top-right,
// bottom-right, bottom-left by angle around their centroid.
func SortWinding(q Quad) Quad {
	var cx, cy float64
	for _, p := range q {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4
	pts := q[:]
	sort.Slice(pts, func(i, j int) bool {
		return math.Atan2(pts[i].Y-cy, pts[i].X-cx) < math.Atan2(pts[j].Y-cy, pts[j].X-cx)
	})
	// Atan2 order starts at the negative X axis; rotate so the point left
	// and above the centroid comes first.
	var out Quad
	copy(out[:], pts)
	start := 0
	bestSum := math.Inf(1)
	for i, p := range out {
		if p.X+p.Y < bestSum {
			bestSum = p.X + p.Y
			start = i
		}
	}
	var rotated Quad
	for i := range 4 {
		rotated[i] = out[(start+i)%4]
	}
	return rotated
}
