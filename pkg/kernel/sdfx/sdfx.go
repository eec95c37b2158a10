// Package sdfx implements the kernel.Kernel interface with signed distance
// fields from github.com/deadsy/sdfx. Booleans are exact on the field but
// meshes are sampled with marching cubes, so edges come out rounded at the
// cell size. Solids carry no paint; the kernel does not implement
// kernel.Painter.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 200

// Solid wraps an sdf.SDF3 to implement kernel.Solid.
type Solid struct {
	s sdf.SDF3
}

// SDF returns the distance field behind the solid.
func (s *Solid) SDF() sdf.SDF3 {
	return s.s
}

// Contains reports whether p lies inside the field.
func (s *Solid) Contains(p v3.Vec) bool {
	return s.s.Evaluate(p) < 0
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithCells sets the marching cubes resolution. Values below 8 are ignored.
func WithCells(n int) Option {
	return func(k *Kernel) {
		if n >= 8 {
			k.cells = n
		}
	}
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct {
	cells int
}

// New returns a new Kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{cells: DefaultCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*Solid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &Solid{s: s}
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its size.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Wedge creates a right triangular prism in the box (0,0,0)-(x,y,z), full
// height along the y=0 edge and sloping to nothing at y. The profile is
// drawn in the YZ plane and extruded along X.
func (k *Kernel) Wedge(x, y, z float64) kernel.Solid {
	profile, err := sdf.Polygon2D([]v2.Vec{{X: 0, Y: 0}, {X: y, Y: 0}, {X: 0, Y: z}})
	if err != nil {
		panic(fmt.Sprintf("sdfx.Polygon2D: %v", err))
	}
	// Extrude3D runs along Z centered on the origin. Map the profile axes
	// (u, v, e) onto world (e, u, v), then move the extrusion to x >= 0.
	m := sdf.Translate3d(v3.Vec{X: x / 2}).
		Mul(sdf.RotateZ(math.Pi / 2)).
		Mul(sdf.RotateX(math.Pi / 2))
	return wrap(sdf.Transform3D(sdf.Extrude3D(profile, x), m))
}

// Cylinder creates a smooth cylinder standing on the XY plane around the Z
// axis. segments is ignored since the field has no facets.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2})))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh samples the field with marching cubes. Every triangle gets its own
// three vertices and a flat normal; the mesh has no UVs or colors. A field
// with no surface yields an empty mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	triangles := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
