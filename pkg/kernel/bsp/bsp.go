// Package bsp implements the kernel.Kernel interface with exact polygon
// booleans from pkg/csg. Solids are closed polygon meshes; ToMesh fans the
// convex polygons into triangles without any resampling.
package bsp

import (
	"math"

	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/shapes"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel  = (*Kernel)(nil)
	_ kernel.Painter = (*Kernel)(nil)
)

// DefaultSegments is the side count used for cylinders when the caller
// passes zero.
const DefaultSegments = 32

// Solid wraps a csg.Mesh to implement kernel.Solid.
type Solid struct {
	mesh *csg.Mesh
}

// NewSolid wraps an existing mesh.
func NewSolid(m *csg.Mesh) *Solid {
	return &Solid{mesh: m}
}

// Mesh returns the polygon mesh behind the solid.
func (s *Solid) Mesh() *csg.Mesh {
	return s.mesh
}

// BoundingBox returns the axis-aligned bounding box. An empty solid has a
// zero box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	bb, ok := s.mesh.Bounds()
	if !ok {
		return min, max
	}
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithPaint sets the paint given to every primitive's faces.
func WithPaint(p geom.Paint) Option {
	return func(k *Kernel) {
		k.paint = p
	}
}

// WithSegments sets the cylinder side count used when the caller passes
// zero. Values below shapes.MinSegments are ignored.
func WithSegments(n int) Option {
	return func(k *Kernel) {
		if n >= shapes.MinSegments {
			k.segments = n
		}
	}
}

// Kernel implements kernel.Kernel using BSP polygon CSG.
type Kernel struct {
	paint    geom.Paint
	segments int
}

// New returns a new Kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{segments: DefaultSegments}
	for _, o := range opts {
		o(k)
	}
	return k
}

// unwrap extracts the underlying mesh from a kernel.Solid.
func unwrap(s kernel.Solid) *csg.Mesh {
	return s.(*Solid).mesh
}

// wrap creates a kernel.Solid from a mesh.
func wrap(m *csg.Mesh) kernel.Solid {
	return NewSolid(m)
}

// Box creates a box with the given dimensions and its minimum corner at the
// origin, so (translate (box ...) 10 0 0) puts the corner at x=10.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return wrap(csg.NewMesh(shapes.Box(v3.Vec{}, v3.Vec{X: x, Y: y, Z: z}, k.paint)...))
}

// Wedge creates a right triangular prism in the box (0,0,0)-(x,y,z),
// sloping from full height at y=0 down to nothing at y.
func (k *Kernel) Wedge(x, y, z float64) kernel.Solid {
	return wrap(csg.NewMesh(shapes.Wedge(v3.Vec{}, v3.Vec{X: x, Y: y, Z: z}, k.paint)...))
}

// Cylinder creates a faceted cylinder standing on the XY plane. segments of
// zero selects the kernel default.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if segments <= 0 {
		segments = k.segments
	}
	return wrap(csg.NewMesh(shapes.Column(radius, height, segments, k.paint)...))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Union(unwrap(b)))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Difference(unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Intersect(unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(unwrap(s).Transformed(m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(unwrap(s).Transformed(m))
}

// Paint returns the solid with every face carrying p and every vertex
// colored c.
func (k *Kernel) Paint(s kernel.Solid, p geom.Paint, c uint32) kernel.Solid {
	m := unwrap(s).Recolored(c)
	polys := m.Polygons()
	for i, poly := range polys {
		polys[i] = poly.WithPaint(p)
	}
	return wrap(csg.NewMesh(polys...))
}

// ToMesh converts a solid to an indexed triangle mesh. Each polygon keeps
// its own vertices and is fanned from its first corner.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	polys := unwrap(s).Polygons()

	numVerts := 0
	numTris := 0
	for _, p := range polys {
		numVerts += p.Len()
		numTris += p.Len() - 2
	}

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	uvs := make([]float32, 0, numVerts*2)
	colors := make([]uint32, 0, numVerts)
	indices := make([]uint32, 0, numTris*3)

	for _, p := range polys {
		base := uint32(len(vertices) / 3)
		face := p.Normal()
		for _, v := range p.Vertices() {
			n := face
			if v.HasNormal {
				n = v.Normal
			}
			vertices = append(vertices, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			uvs = append(uvs, float32(v.UV.X), float32(v.UV.Y))
			colors = append(colors, v.Color)
		}
		for i := 1; i+1 < p.Len(); i++ {
			indices = append(indices, base, base+uint32(i), base+uint32(i+1))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		UVs:      uvs,
		Colors:   colors,
		Indices:  indices,
	}, nil
}
