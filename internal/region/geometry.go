package region

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RepresentativePoint returns a point inside the polygon or multipolygon.
// It scans a horizontal line through the middle of each part, chosen to
// avoid vertices, and returns the midpoint of the widest interior interval.
func RepresentativePoint(g orb.Geometry) orb.Point {
	var polys []orb.Polygon
	switch geom := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{geom}
	case orb.MultiPolygon:
		polys = geom
	}

	best, bestWidth := orb.Point{}, -1.0
	for _, p := range polys {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		pt, width := widestScanInterval(p)
		if width > bestWidth {
			best, bestWidth = pt, width
		}
	}
	if bestWidth <= 0 {
		c, _ := planar.CentroidArea(g)
		return c
	}
	return best
}

func widestScanInterval(p orb.Polygon) (orb.Point, float64) {
	y := scanLineY(p)

	var xs []float64
	for _, ring := range p {
		for i := range ring {
			a, b := ring[i], ring[(i+1)%len(ring)]
			if (a[1] > y) == (b[1] > y) {
				continue
			}
			xs = append(xs, a[0]+(y-a[1])*(b[0]-a[0])/(b[1]-a[1]))
		}
	}
	sort.Float64s(xs)

	best, width := orb.Point{}, 0.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > width {
			best, width = orb.Point{(xs[i] + xs[i+1]) / 2, y}, w
		}
	}
	return best, width
}

// scanLineY picks a y halfway between the vertices nearest the shell's
// vertical centre, so the scan line never passes through a vertex.
func scanLineY(p orb.Polygon) float64 {
	b := p[0].Bound()
	centre := (b.Min[1] + b.Max[1]) / 2
	lo, hi := b.Min[1], b.Max[1]
	for _, pt := range p[0] {
		y := pt[1]
		switch {
		case y <= centre && y > lo:
			lo = y
		case y > centre && y < hi:
			hi = y
		}
	}
	return (lo + hi) / 2
}

// Touches reports whether two polygonal geometries share boundary points
// without overlapping interiors.
func Touches(a, b orb.Geometry) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	segsA, segsB := segments(a), segments(b)

	touching := false
	for _, s := range segsA {
		for _, t := range segsB {
			switch intersect(s, t) {
			case crossing:
				return false
			case contact:
				touching = true
			}
		}
	}
	if !touching {
		return false
	}
	return !interiorOverlap(a, b, segsB) && !interiorOverlap(b, a, segsA)
}

// interiorOverlap reports whether part of a lies strictly inside b.
func interiorOverlap(a, b orb.Geometry, boundaryB [][2]orb.Point) bool {
	probes := []orb.Point{RepresentativePoint(a)}
	for _, s := range segments(a) {
		probes = append(probes, s[0], orb.Point{(s[0][0] + s[1][0]) / 2, (s[0][1] + s[1][1]) / 2})
	}
	for _, p := range probes {
		if contains(b, p) && !onBoundary(p, boundaryB) {
			return true
		}
	}
	return false
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	}
	return false
}

func onBoundary(p orb.Point, segs [][2]orb.Point) bool {
	for _, s := range segs {
		if orient(s[0], s[1], p) == 0 && inBox(s[0], s[1], p) {
			return true
		}
	}
	return false
}

func segments(g orb.Geometry) [][2]orb.Point {
	var rings []orb.Ring
	switch geom := g.(type) {
	case orb.Polygon:
		rings = geom
	case orb.MultiPolygon:
		for _, p := range geom {
			rings = append(rings, p...)
		}
	}
	var segs [][2]orb.Point
	for _, r := range rings {
		for i := 0; i+1 < len(r); i++ {
			if r[i] != r[i+1] {
				segs = append(segs, [2]orb.Point{r[i], r[i+1]})
			}
		}
		if n := len(r); n > 1 && r[0] != r[n-1] {
			segs = append(segs, [2]orb.Point{r[n-1], r[0]})
		}
	}
	return segs
}

type intersection int

const (
	disjoint intersection = iota
	contact               // shared endpoint, T-junction or collinear overlap
	crossing              // proper crossing at interior points of both
)

func intersect(s, t [2]orb.Point) intersection {
	d1 := orient(t[0], t[1], s[0])
	d2 := orient(t[0], t[1], s[1])
	d3 := orient(s[0], s[1], t[0])
	d4 := orient(s[0], s[1], t[1])

	if d1*d2 < 0 && d3*d4 < 0 {
		return crossing
	}
	if (d1 == 0 && inBox(t[0], t[1], s[0])) ||
		(d2 == 0 && inBox(t[0], t[1], s[1])) ||
		(d3 == 0 && inBox(s[0], s[1], t[0])) ||
		(d4 == 0 && inBox(s[0], s[1], t[1])) {
		return contact
	}
	return disjoint
}

// orient returns the sign of the cross product (b-a)x(c-a).
func orient(a, b, c orb.Point) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func inBox(a, b, p orb.Point) bool {
	return p[0] >= math.Min(a[0], b[0]) && p[0] <= math.Max(a[0], b[0]) &&
		p[1] >= math.Min(a[1], b[1]) && p[1] <= math.Max(a[1], b[1])
}
