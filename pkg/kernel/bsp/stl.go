package bsp

import (
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangles fans every polygon of s into sdfx triangles.
func Triangles(s kernel.Solid) []*sdf.Triangle3 {
	tris := unwrap(s).Triangles()
	out := make([]*sdf.Triangle3, len(tris))
	for i, t := range tris {
		out[i] = &sdf.Triangle3{t[0].Pos, t[1].Pos, t[2].Pos}
	}
	return out
}

// SaveSTL writes s to path as a binary STL file.
func SaveSTL(path string, s kernel.Solid) error {
	if err := render.SaveSTL(path, Triangles(s)); err != nil {
		return fmt.Errorf("bsp: save stl %s: %w", path, err)
	}
	return nil
}

// MeshTriangles converts an indexed render mesh back into sdfx triangles.
func MeshTriangles(m *kernel.Mesh) []*sdf.Triangle3 {
	pos := func(i uint32) v3.Vec {
		return v3.Vec{
			X: float64(m.Vertices[3*i]),
			Y: float64(m.Vertices[3*i+1]),
			Z: float64(m.Vertices[3*i+2]),
		}
	}
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t+2 < len(m.Indices); t += 3 {
		out = append(out, &sdf.Triangle3{pos(m.Indices[t]), pos(m.Indices[t+1]), pos(m.Indices[t+2])})
	}
	return out
}

// SaveMeshSTL writes a render mesh to path as a binary STL file.
func SaveMeshSTL(path string, m *kernel.Mesh) error {
	if err := render.SaveSTL(path, MeshTriangles(m)); err != nil {
		return fmt.Errorf("bsp: save stl %s: %w", path, err)
	}
	return nil
}
