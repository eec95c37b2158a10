// Package shapes generates the convex, planar, outward-facing polygon
// meshes that feed boolean operations.
package shapes

import (
	"math"

	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MinSegments is the smallest side count Column accepts.
const MinSegments = 3

// boxFaces lists each face of a box as four corner indices. Corner i sits at
// max on X when bit 0 is set, on Y for bit 1 and on Z for bit 2.
var boxFaces = [6][4]int{
	{0, 4, 6, 2}, // -X
	{1, 3, 7, 5}, // +X
	{0, 1, 5, 4}, // -Y
	{2, 6, 7, 3}, // +Y
	{0, 2, 3, 1}, // -Z
	{4, 5, 7, 6}, // +Z
}

var quadUV = [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Box returns the six faces of the axis-aligned box between min and max.
// Each face carries its own 0..1 UV square. A box with no volume yields nil.
func Box(min, max v3.Vec, paint geom.Paint) []*geom.Polygon {
	if !hasVolume(min, max) {
		return nil
	}
	corner := func(i int) v3.Vec {
		c := min
		if i&1 != 0 {
			c.X = max.X
		}
		if i&2 != 0 {
			c.Y = max.Y
		}
		if i&4 != 0 {
			c.Z = max.Z
		}
		return c
	}

	polys := make([]*geom.Polygon, 0, len(boxFaces))
	for _, face := range boxFaces {
		verts := make([]geom.Vertex, 4)
		for k, idx := range face {
			p := corner(idx)
			verts[k] = geom.NewVertex(p.X, p.Y, p.Z, quadUV[k][0], quadUV[k][1])
		}
		polys = append(polys, geom.NewPolygon(paint, verts...))
	}
	return polys
}

// Wedge returns a right triangular prism inside the box between min and max.
// It is full height along the min.Y edge and slopes down to zero height at
// max.Y. A wedge with no volume yields nil.
func Wedge(min, max v3.Vec, paint geom.Paint) []*geom.Polygon {
	if !hasVolume(min, max) {
		return nil
	}
	a := v3.Vec{X: min.X, Y: min.Y, Z: min.Z}
	b := v3.Vec{X: max.X, Y: min.Y, Z: min.Z}
	c := v3.Vec{X: max.X, Y: max.Y, Z: min.Z}
	d := v3.Vec{X: min.X, Y: max.Y, Z: min.Z}
	e := v3.Vec{X: min.X, Y: min.Y, Z: max.Z}
	f := v3.Vec{X: max.X, Y: min.Y, Z: max.Z}

	quad := func(p ...v3.Vec) *geom.Polygon {
		verts := make([]geom.Vertex, len(p))
		for k := range p {
			verts[k] = geom.NewVertex(p[k].X, p[k].Y, p[k].Z, quadUV[k][0], quadUV[k][1])
		}
		return geom.NewPolygon(paint, verts...)
	}

	return []*geom.Polygon{
		quad(a, d, c, b), // bottom
		quad(a, b, f, e), // back
		quad(e, f, c, d), // slope
		quad(a, e, d),    // -X end
		quad(b, c, f),    // +X end
	}
}

// Column returns an n-sided prism standing on the XY plane around the Z
// axis. segments below MinSegments are raised to it. A column with no
// radius or height yields nil.
func Column(radius, height float64, segments int, paint geom.Paint) []*geom.Polygon {
	if radius <= geom.Epsilon || height <= geom.Epsilon {
		return nil
	}
	if segments < MinSegments {
		segments = MinSegments
	}

	ring := make([]v3.Vec, segments)
	for i := range ring {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = v3.Vec{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	capUV := func(p v3.Vec) (float64, float64) {
		return (p.X/radius + 1) / 2, (p.Y/radius + 1) / 2
	}

	polys := make([]*geom.Polygon, 0, segments+2)
	for i := 0; i < segments; i++ {
		p, q := ring[i], ring[(i+1)%segments]
		u0 := float64(i) / float64(segments)
		u1 := float64(i+1) / float64(segments)
		polys = append(polys, geom.NewPolygon(paint,
			geom.NewVertex(p.X, p.Y, 0, u0, 0),
			geom.NewVertex(q.X, q.Y, 0, u1, 0),
			geom.NewVertex(q.X, q.Y, height, u1, 1),
			geom.NewVertex(p.X, p.Y, height, u0, 1),
		))
	}

	top := make([]geom.Vertex, segments)
	bottom := make([]geom.Vertex, segments)
	for i, p := range ring {
		u, v := capUV(p)
		top[i] = geom.NewVertex(p.X, p.Y, height, u, v)
		bottom[segments-1-i] = geom.NewVertex(p.X, p.Y, 0, u, v)
	}
	polys = append(polys, geom.NewPolygon(paint, top...), geom.NewPolygon(paint, bottom...))
	return polys
}

func hasVolume(min, max v3.Vec) bool {
	return max.X-min.X > geom.Epsilon &&
		max.Y-min.Y > geom.Epsilon &&
		max.Z-min.Z > geom.Epsilon
}
