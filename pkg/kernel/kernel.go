// Package kernel defines the abstract geometry kernel interface.
// The bsp backend implements it on top of polygon CSG; the rest of the
// system (tessellation, the CLI) only sees Solid, Kernel and Mesh.
package kernel

import "github.com/chazu/kerf/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box and Wedge have their minimum corner at the origin;
	// Cylinder stands on the XY plane around the Z axis.
	Box(x, y, z float64) Solid
	Wedge(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Painter is implemented by kernels whose solids carry surface paint and
// vertex color through to their meshes.
type Painter interface {
	Paint(s Solid, p geom.Paint, color uint32) Solid
}
