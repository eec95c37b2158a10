package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// White is the default packed ARGB vertex color.
const White uint32 = 0xFFFFFFFF

// Vertex is a polygon corner. It is a value type; every method returns a
// new vertex.
type Vertex struct {
	Pos   v3.Vec
	UV    v2.Vec
	Color uint32 // packed ARGB

	// Normal is only meaningful when HasNormal is set. Vertices without a
	// normal render with the polygon's face normal.
	Normal    v3.Vec
	HasNormal bool
}

// NewVertex returns a white vertex at (x, y, z) with texture coordinates (u, v).
func NewVertex(x, y, z, u, v float64) Vertex {
	return Vertex{
		Pos:   v3.Vec{X: x, Y: y, Z: z},
		UV:    v2.Vec{X: u, Y: v},
		Color: White,
	}
}

// WithNormal returns a copy of v carrying the given normal.
func (v Vertex) WithNormal(n v3.Vec) Vertex {
	v.Normal = n
	v.HasNormal = true
	return v
}

// WithColor returns a copy of v with the given packed ARGB color.
func (v Vertex) WithColor(c uint32) Vertex {
	v.Color = c
	return v
}

// Coincident reports whether two vertices share a position within Epsilon
// on every axis. UV, color and normal are ignored.
func (v Vertex) Coincident(o Vertex) bool {
	return math.Abs(v.Pos.X-o.Pos.X) <= Epsilon &&
		math.Abs(v.Pos.Y-o.Pos.Y) <= Epsilon &&
		math.Abs(v.Pos.Z-o.Pos.Z) <= Epsilon
}

// Interpolate returns the vertex at parameter t along v→o. Normals are
// blended only when both ends carry one.
func (v Vertex) Interpolate(o Vertex, t float64) Vertex {
	r := Vertex{
		Pos: v.Pos.Add(o.Pos.Sub(v.Pos).MulScalar(t)),
		UV: v2.Vec{
			X: v.UV.X + (o.UV.X-v.UV.X)*t,
			Y: v.UV.Y + (o.UV.Y-v.UV.Y)*t,
		},
		Color: lerpColor(v.Color, o.Color, t),
	}
	if v.HasNormal && o.HasNormal {
		r.Normal = normalizeOr(v.Normal.Add(o.Normal.Sub(v.Normal).MulScalar(t)), v.Normal)
		r.HasNormal = true
	}
	return r
}

// Flipped returns v with its normal (if any) negated.
func (v Vertex) Flipped() Vertex {
	if v.HasNormal {
		v.Normal = v.Normal.Neg()
	}
	return v
}

// Transformed returns v moved by m. The normal is rotated by the linear
// part of m and renormalized.
func (v Vertex) Transformed(m sdf.M44) Vertex {
	if v.HasNormal {
		origin := m.MulPosition(v3.Vec{})
		v.Normal = normalizeOr(m.MulPosition(v.Normal).Sub(origin), v.Normal)
	}
	v.Pos = m.MulPosition(v.Pos)
	return v
}

func lerpColor(a, b uint32, t float64) uint32 {
	var out uint32
	for shift := uint(0); shift < 32; shift += 8 {
		ca := float64((a >> shift) & 0xFF)
		cb := float64((b >> shift) & 0xFF)
		c := math.Round(ca + (cb-ca)*t)
		if c < 0 {
			c = 0
		} else if c > 255 {
			c = 255
		}
		out |= uint32(c) << shift
	}
	return out
}

// normalizeOr returns n normalized, or fallback when n has no direction.
func normalizeOr(n, fallback v3.Vec) v3.Vec {
	l := n.Length()
	if l < 1e-12 {
		return fallback
	}
	return n.MulScalar(1 / l)
}
