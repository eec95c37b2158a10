package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2, colors has one packed ARGB
// value per vertex, and indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Colors   []uint32  `json:"colors"`   // [argb0, argb1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which design graph part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// SurfaceArea returns the summed area of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	pos := func(i uint32) [3]float64 {
		return [3]float64{
			float64(m.Vertices[3*i]),
			float64(m.Vertices[3*i+1]),
			float64(m.Vertices[3*i+2]),
		}
	}
	var area float64
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := pos(m.Indices[t]), pos(m.Indices[t+1]), pos(m.Indices[t+2])
		u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		x := u[1]*v[2] - u[2]*v[1]
		y := u[2]*v[0] - u[0]*v[2]
		z := u[0]*v[1] - u[1]*v[0]
		area += math.Sqrt(x*x+y*y+z*z) / 2
	}
	return area
}
