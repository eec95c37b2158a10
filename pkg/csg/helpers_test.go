package csg

import (
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/shapes"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

func vec(x, y, z float64) v3.Vec {
	return v3.Vec{X: x, Y: y, Z: z}
}

func cube(min, max v3.Vec) *Mesh {
	return NewMesh(shapes.Box(min, max, geom.Paint{})...)
}

func paintedCube(min, max v3.Vec, texture string) *Mesh {
	return NewMesh(shapes.Box(min, max, geom.Paint{Texture: texture})...)
}

func square(z float64) *geom.Polygon {
	return geom.NewPolygon(geom.Paint{},
		geom.NewVertex(0, 0, z, 0, 0),
		geom.NewVertex(1, 0, z, 1, 0),
		geom.NewVertex(1, 1, z, 1, 1),
		geom.NewVertex(0, 1, z, 0, 1),
	)
}

// rayDir is skewed so test rays never run along a face or through an edge
// of the axis-aligned fixtures.
var rayDir = vec(1, 0.3713, 0.1219)

// inside classifies pt by counting surface crossings of a ray. It does not
// share any code with the tree, so it checks results independently.
func inside(m *Mesh, pt v3.Vec) bool {
	hits := 0
	for _, t := range m.Triangles() {
		if rayHitsTriangle(pt, rayDir, t[0].Pos, t[1].Pos, t[2].Pos) {
			hits++
		}
	}
	return hits%2 == 1
}

// rayHitsTriangle is the Möller–Trumbore test.
func rayHitsTriangle(o, d, a, b, c v3.Vec) bool {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-12 {
		return false
	}
	inv := 1 / det
	s := o.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	return e2.Dot(q)*inv > 1e-9
}

// samples returns a grid of points offset from every fixture plane.
func samples(lo, hi, step float64) []v3.Vec {
	var pts []v3.Vec
	for x := lo; x <= hi; x += step {
		for y := lo; y <= hi; y += step {
			for z := lo; z <= hi; z += step {
				pts = append(pts, vec(x+0.0123, y+0.0171, z+0.0137))
			}
		}
	}
	return pts
}

// requireRenderable checks every polygon obeys the output contract: valid,
// and wound to agree with its face normal.
func requireRenderable(t *testing.T, m *Mesh) {
	t.Helper()
	for i, p := range m.Polygons() {
		require.NoError(t, p.Validate(), "polygon %d", i)
		winding := geom.NewPolygon(p.Paint(), p.Vertices()...).Normal()
		require.Greater(t, winding.Dot(p.Normal()), 0.99, "polygon %d wound against its normal", i)
	}
}
