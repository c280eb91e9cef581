package geometry

import (
	"math"

	"github.com/MeKo-Tech/screenmark/internal/pixel"
)

// contourCandidates runs the classical pipeline: edge detection, connected
// components, Moore-Neighbor contour tracing, and Douglas-Peucker
// simplification, keeping polygons that reduce to four vertices.
func (c *Corrector) contourCandidates(buf *pixel.Buffer) []Candidate {
	mask := detectEdges(buf, c.cfg)
	labels, count := labelComponents(mask, buf.Width, buf.Height)
	var cands []Candidate
	for label := 1; label <= count; label++ {
		contour := traceContour(labels, buf.Width, buf.Height, label)
		if len(contour) < 4 {
			continue
		}
		if polygonArea(contour) < float64(c.cfg.MinComponentArea) {
			continue
		}
		eps := perimeter(contour) * c.cfg.SimplifyEpsilonFrac
		simplified := simplifyPolygon(contour, eps)
		if len(simplified) != 4 {
			continue
		}
		var q Quad
		copy(q[:], simplified)
		cands = append(cands, Candidate{Quad: SortWinding(q), Source: "contour"})
	}
	return cands
}

// labelComponents assigns 8-connected component labels to the edge mask.
func labelComponents(mask []bool, w, h int) ([]int, int) {
	labels := make([]int, w*h)
	next := 0
	stack := make([][2]int, 0, 256)
	for y := range h {
		for x := range w {
			i := y*w + x
			if !mask[i] || labels[i] != 0 {
				continue
			}
			next++
			labels[i] = next
			stack = append(stack[:0], [2]int{x, y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p[0]+dx, p[1]+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						j := ny*w + nx
						if mask[j] && labels[j] == 0 {
							labels[j] = next
							stack = append(stack, [2]int{nx, ny})
						}
					}
				}
			}
		}
	}
	return labels, next
}

// traceContour extracts the boundary polygon of a labeled component using
// Moore-Neighbor tracing. Returned points are pixel centers with collinear
// runs collapsed.
func traceContour(labels []int, w, h, label int) []Point {
	sx, sy := findBoundaryStart(labels, w, h, label)
	if sx == -1 {
		return nil
	}

	isLabel := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return labels[y*w+x] == label
	}

	// 8-neighborhood in clockwise order: E, SE, S, SW, W, NW, N, NE.
	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	dirIndex := func(dx, dy int) int {
		for i := range 8 {
			if ndx[i] == dx && ndy[i] == dy {
				return i
			}
		}
		return 0
	}

	pts := make([]Point, 0, 64)
	appendPt := func(x, y int) {
		p := Point{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			// Collapse collinear middle points.
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy
	appendPt(cx, cy)
	startCx, startCy, startBx, startBy := cx, cy, bx, by
	maxSteps := w*h*4 + 8

	for step := 0; step < maxSteps; step++ {
		// Scan the Moore neighborhood clockwise from the backtrack cell.
		start := (dirIndex(bx-cx, by-cy) + 1) % 8
		found := false
		for k := range 8 {
			i := (start + k) % 8
			tx, ty := cx+ndx[i], cy+ndy[i]
			if isLabel(tx, ty) {
				bx, by = cx, cy
				cx, cy = tx, ty
				found = true
				break
			}
			bx, by = tx, ty
		}
		if !found {
			break
		}
		if last := pts[len(pts)-1]; last.X != float64(cx) || last.Y != float64(cy) {
			appendPt(cx, cy)
		}
		if cx == startCx && cy == startCy && bx == startBx && by == startBy {
			break
		}
	}

	// Drop a duplicated closing point.
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}

func findBoundaryStart(labels []int, w, h, label int) (int, int) {
	for y := range h {
		for x := range w {
			if labels[y*w+x] == label {
				return x, y
			}
		}
	}
	return -1, -1
}

// simplifyPolygon reduces a closed polygon with the Douglas-Peucker
// algorithm at tolerance eps.
func simplifyPolygon(pts []Point, eps float64) []Point {
	if len(pts) <= 3 || eps <= 0 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	dpSimplify(pts, 0, len(pts)-1, eps, keep)
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], pts[start], pts[end])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs((p.X-a.X)*vy-(p.Y-a.Y)*vx) / math.Hypot(vx, vy)
}

func polygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

func perimeter(pts []Point) float64 {
	var sum float64
	for i := range pts {
		sum += dist(pts[i], pts[(i+1)%len(pts)])
	}
	return sum
}
