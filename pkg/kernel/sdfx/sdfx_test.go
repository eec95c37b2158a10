package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := New(WithCells(40))
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	checkBounds(t, box, [3]float64{0, 0, 0}, [3]float64{100, 50, 25}, 0.01)
}

func TestCylinderStandsOnXY(t *testing.T) {
	k := New(WithCells(40))
	cyl := k.Cylinder(50, 10, 0)
	checkBounds(t, cyl, [3]float64{-10, -10, 0}, [3]float64{10, 10, 50}, 0.01)

	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestWedge(t *testing.T) {
	k := New()
	w := k.Wedge(10, 20, 5)
	checkBounds(t, w, [3]float64{0, 0, 0}, [3]float64{10, 20, 5}, 0.01)

	tests := []struct {
		name string
		p    v3.Vec
		want bool
	}{
		{"low corner", v3.Vec{X: 5, Y: 1, Z: 1}, true},
		{"under slope", v3.Vec{X: 5, Y: 10, Z: 2}, true},
		{"above slope", v3.Vec{X: 5, Y: 10, Z: 3}, false},
		{"past end", v3.Vec{X: 11, Y: 1, Z: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.(*Solid).Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	k := New()
	box := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees around Z extends along -Y.
	rotated := k.Rotate(box, 0, 0, 90)
	checkBounds(t, rotated, [3]float64{-10, 0, 0}, [3]float64{0, 100, 10}, 0.01)
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	checkBounds(t, moved, [3]float64{100, 200, 300}, [3]float64{110, 210, 310}, 0.01)
}

func TestDifferenceMesh(t *testing.T) {
	k := New(WithCells(60))
	box := k.Box(100, 100, 100)
	diff := k.Difference(box, k.Translate(k.Cylinder(120, 20, 0), 50, 50, -10))

	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestEmptyDifference(t *testing.T) {
	k := New(WithCells(20))
	s := k.Difference(k.Box(1, 1, 1), k.Translate(k.Box(3, 3, 3), -1, -1, -1))
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if !mesh.IsEmpty() {
		t.Errorf("expected empty mesh, got %d triangles", mesh.TriangleCount())
	}
}

// TestAgreesWithBSP samples both kernels on a grid and checks that the
// field and the polygon solid agree on inside and outside away from the
// surface.
func TestAgreesWithBSP(t *testing.T) {
	tests := []struct {
		name  string
		build func(k kernel.Kernel) kernel.Solid
	}{
		{"notched block", func(k kernel.Kernel) kernel.Solid {
			return k.Difference(k.Box(20, 10, 10), k.Translate(k.Box(6, 12, 6), 7, -1, 5))
		}},
		{"overlapping boxes", func(k kernel.Kernel) kernel.Solid {
			return k.Union(k.Box(10, 10, 10), k.Translate(k.Box(10, 10, 10), 5, 5, 5))
		}},
		{"box meets wedge", func(k kernel.Kernel) kernel.Solid {
			return k.Intersection(k.Box(10, 10, 10), k.Translate(k.Wedge(10, 14, 14), -2, -2, -2))
		}},
		{"drilled plate", func(k kernel.Kernel) kernel.Solid {
			return k.Difference(k.Box(20, 20, 4), k.Translate(k.Cylinder(6, 5, 64), 10, 10, -1))
		}},
		{"rotated bar", func(k kernel.Kernel) kernel.Solid {
			return k.Translate(k.Rotate(k.Box(16, 4, 4), 0, 0, 30), 4, 0, 0)
		}},
	}

	const margin = 0.25
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := tt.build(New()).(*Solid)
			poly := tt.build(bsp.New()).(*bsp.Solid).Mesh()

			min, max := field.BoundingBox()
			checked := 0
			for x := min[0] - 1.03; x <= max[0]+1; x += 1.37 {
				for y := min[1] - 1.07; y <= max[1]+1; y += 1.41 {
					for z := min[2] - 1.01; z <= max[2]+1; z += 1.29 {
						p := v3.Vec{X: x, Y: y, Z: z}
						if math.Abs(field.SDF().Evaluate(p)) < margin {
							continue
						}
						checked++
						if got, want := poly.Contains(p), field.Contains(p); got != want {
							t.Fatalf("at %v: bsp says %v, field says %v", p, got, want)
						}
					}
				}
			}
			if checked == 0 {
				t.Fatal("no sample points checked")
			}
		})
	}
}
