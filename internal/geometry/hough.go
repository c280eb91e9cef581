package geometry

import (
	"math"
	"sort"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// houghLine is a line in normal form: x*cos(theta) + y*sin(theta) = rho.
type houghLine struct {
	rho   float64
	theta float64
	votes int
}

// houghCandidates is the last-resort detection strategy: accumulate Hough
// lines over the edge mask, split them into horizontal and vertical
// families, intersect the two strongest of each, and order the four
// intersections into a quad.
func (c *Corrector) houghCandidates(buf *pixel.Buffer) []Candidate {
	mask := detectEdges(buf, c.cfg)
	lines := houghLines(mask, buf.Width, buf.Height, c.cfg.HoughThreshold)
	if len(lines) < 4 {
		return nil
	}

	var horizontal, vertical []houghLine
	for _, l := range lines {
		// theta is the normal angle; a horizontal line has a vertical
		// normal (theta near 90 degrees).
		deg := l.theta * 180 / math.Pi
		if deg > 45 && deg < 135 {
			horizontal = append(horizontal, l)
		} else {
			vertical = append(vertical, l)
		}
	}
	if len(horizontal) < 2 || len(vertical) < 2 {
		return nil
	}
	sort.Slice(horizontal, func(i, j int) bool { return horizontal[i].votes > horizontal[j].votes })
	sort.Slice(vertical, func(i, j int) bool { return vertical[i].votes > vertical[j].votes })
	horizontal = dedupeLines(horizontal, float64(buf.Height)*0.05)
	vertical = dedupeLines(vertical, float64(buf.Width)*0.05)
	if len(horizontal) < 2 || len(vertical) < 2 {
		return nil
	}

	var corners [4]Point
	idx := 0
	for _, hl := range horizontal[:2] {
		for _, vl := range vertical[:2] {
			p, ok := intersectLines(hl, vl)
			if !ok {
				return nil
			}
			corners[idx] = p
			idx++
		}
	}
	q := SortWinding(Quad(corners))
	return []Candidate{{Quad: q, Source: "hough"}}
}

// houghLines votes edge pixels into a (rho, theta) accumulator and returns
// local-maximum lines above the vote threshold.
func houghLines(mask []bool, w, h, threshold int) []houghLine {
	if threshold <= 0 {
		threshold = 80
	}
	const thetaSteps = 180
	maxRho := math.Hypot(float64(w), float64(h))
	rhoSteps := int(2*maxRho) + 1
	acc := make([]int, thetaSteps*rhoSteps)

	sinT := make([]float64, thetaSteps)
	cosT := make([]float64, thetaSteps)
	for t := range thetaSteps {
		rad := float64(t) * math.Pi / float64(thetaSteps)
		sinT[t] = math.Sin(rad)
		cosT[t] = math.Cos(rad)
	}

	for y := range h {
		for x := range w {
			if !mask[y*w+x] {
				continue
			}
			for t := range thetaSteps {
				rho := float64(x)*cosT[t] + float64(y)*sinT[t]
				r := int(rho + maxRho)
				if r >= 0 && r < rhoSteps {
					acc[t*rhoSteps+r]++
				}
			}
		}
	}

	var lines []houghLine
	for t := range thetaSteps {
		for r := range rhoSteps {
			votes := acc[t*rhoSteps+r]
			if votes < threshold {
				continue
			}
			if !isAccumulatorPeak(acc, thetaSteps, rhoSteps, t, r) {
				continue
			}
			lines = append(lines, houghLine{
				rho:   float64(r) - maxRho,
				theta: float64(t) * math.Pi / float64(thetaSteps),
				votes: votes,
			})
		}
	}
	return lines
}

func isAccumulatorPeak(acc []int, thetaSteps, rhoSteps, t, r int) bool {
	v := acc[t*rhoSteps+r]
	for dt := -1; dt <= 1; dt++ {
		for dr := -2; dr <= 2; dr++ {
			nt, nr := t+dt, r+dr
			if nt < 0 || nt >= thetaSteps || nr < 0 || nr >= rhoSteps {
				continue
			}
			if acc[nt*rhoSteps+nr] > v {
				return false
			}
		}
	}
	return true
}

// dedupeLines keeps the strongest line of each cluster of near-equal rho.
func dedupeLines(lines []houghLine, minRhoGap float64) []houghLine {
	var out []houghLine
	for _, l := range lines {
		dup := false
		for _, kept := range out {
			if math.Abs(kept.rho-l.rho) < minRhoGap {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	return out
}

// intersectLines solves the pairwise intersection of two normal-form lines.
func intersectLines(a, b houghLine) (Point, bool) {
	ca, sa := math.Cos(a.theta), math.Sin(a.theta)
	cb, sb := math.Cos(b.theta), math.Sin(b.theta)
	det := ca*sb - cb*sa
	if math.Abs(det) < 1e-9 {
		return Point{}, false
	}
	x := (a.rho*sb - b.rho*sa) / det
	y := (b.rho*ca - a.rho*cb) / det
	return Point{X: x, Y: y}, true
}
