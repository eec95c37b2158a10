package csg

import (
	"fmt"
	"runtime"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// Op is a boolean set operation.
type Op int

const (
	OpUnion Op = iota
	OpIntersect
	OpDifference
)

func (op Op) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpIntersect:
		return "intersect"
	case OpDifference:
		return "difference"
	default:
		return "unknown"
	}
}

// ParseOp returns the Op named s.
func ParseOp(s string) (Op, error) {
	switch s {
	case "union":
		return OpUnion, nil
	case "intersect", "intersection":
		return OpIntersect, nil
	case "difference", "subtract":
		return OpDifference, nil
	}
	return 0, fmt.Errorf("csg: unknown operation %q", s)
}

// MarshalText encodes the operation by name.
func (op Op) MarshalText() ([]byte, error) {
	if op < OpUnion || op > OpDifference {
		return nil, fmt.Errorf("csg: invalid operation %d", int(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText decodes an operation name.
func (op *Op) UnmarshalText(b []byte) error {
	v, err := ParseOp(string(b))
	if err != nil {
		return err
	}
	*op = v
	return nil
}

// Report describes what one boolean operation did.
type Report struct {
	Op        Op
	InputA    int // polygons in the left operand
	InputB    int // polygons in the right operand
	Bypassed  int // left polygons copied through by the bounding-box filter
	Fragments int // fragments left in the tree before recombination
	Output    int // polygons in the result
}

// Mesh is an unordered collection of polygons describing the surface of a
// solid. Meshes are immutable; operations return new meshes.
type Mesh struct {
	polys []*geom.Polygon
}

// NewMesh returns a mesh of the given polygons.
func NewMesh(polys ...*geom.Polygon) *Mesh {
	return &Mesh{polys: append([]*geom.Polygon(nil), polys...)}
}

// Polygons returns a copy of the mesh's polygon list.
func (m *Mesh) Polygons() []*geom.Polygon {
	return append([]*geom.Polygon(nil), m.polys...)
}

// Len returns the number of polygons.
func (m *Mesh) Len() int {
	return len(m.polys)
}

// IsEmpty reports whether the mesh has no polygons.
func (m *Mesh) IsEmpty() bool {
	return len(m.polys) == 0
}

// Bounds returns the mesh's bounding box. ok is false for an empty mesh.
func (m *Mesh) Bounds() (b sdf.Box3, ok bool) {
	return geom.BoundsOf(m.polys)
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var a float64
	for _, p := range m.polys {
		a += p.Area()
	}
	return a
}

// Volume returns the enclosed volume of a closed, outward-facing mesh.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, p := range m.polys {
		for _, t := range p.Triangles() {
			vol += t[0].Pos.Dot(t[1].Pos.Cross(t[2].Pos))
		}
	}
	return vol / 6
}

// Validate checks every polygon against the producer contract.
func (m *Mesh) Validate() error {
	for i, p := range m.polys {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("csg: polygon %d: %w", i, err)
		}
	}
	return nil
}

// Contains reports whether pt is inside the solid. Points within Epsilon of
// the surface may report either way.
func (m *Mesh) Contains(pt v3.Vec) bool {
	if len(m.polys) == 0 {
		return false
	}
	return NewTree(NewAllocator(), m.polys).Contains(pt)
}

// Transformed returns the mesh moved by mat.
func (m *Mesh) Transformed(mat sdf.M44) *Mesh {
	out := make([]*geom.Polygon, len(m.polys))
	for i, p := range m.polys {
		out[i] = p.Transformed(mat)
	}
	return &Mesh{polys: out}
}

// recolorChunk is the number of polygons recolored per goroutine.
const recolorChunk = 256

// Recolored returns the mesh with every vertex set to color c. Polygons are
// independent, so chunks are processed in parallel.
func (m *Mesh) Recolored(c uint32) *Mesh {
	out := make([]*geom.Polygon, len(m.polys))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(m.polys); start += recolorChunk {
		end := min(start+recolorChunk, len(m.polys))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = m.polys[i].Recolored(c)
			}
			return nil
		})
	}
	// Workers never fail; the group only bounds concurrency.
	_ = g.Wait()
	return &Mesh{polys: out}
}

// Triangles fans every polygon into triangles.
func (m *Mesh) Triangles() [][3]geom.Vertex {
	var out [][3]geom.Vertex
	for _, p := range m.polys {
		out = append(out, p.Triangles()...)
	}
	return out
}

// Quads returns the mesh with every polygon cut into pieces of at most
// four vertices.
func (m *Mesh) Quads() *Mesh {
	out := make([]*geom.Polygon, 0, len(m.polys))
	for _, p := range m.polys {
		out = append(out, p.Quads()...)
	}
	return &Mesh{polys: out}
}

// Union returns the polygons bounding the points in m or o.
func (m *Mesh) Union(o *Mesh) *Mesh {
	r, _ := Operate(OpUnion, m, o)
	return r
}

// Intersect returns the polygons bounding the points in both m and o.
func (m *Mesh) Intersect(o *Mesh) *Mesh {
	r, _ := Operate(OpIntersect, m, o)
	return r
}

// Difference returns the polygons bounding the points in m but not in o.
func (m *Mesh) Difference(o *Mesh) *Mesh {
	r, _ := Operate(OpDifference, m, o)
	return r
}

// Operate runs op on a and b.
//
// For union and difference, polygons of a whose bounds miss b's bounds
// cannot change and are copied into the result without being rebuilt. b is
// still classified against every polygon of a.
func Operate(op Op, a, b *Mesh) (*Mesh, Report) {
	rep := Report{Op: op, InputA: len(a.polys), InputB: len(b.polys)}
	finish := func(polys []*geom.Polygon) (*Mesh, Report) {
		rep.Output = len(polys)
		return &Mesh{polys: polys}, rep
	}

	if op == OpIntersect {
		if a.IsEmpty() || b.IsEmpty() {
			return finish(nil)
		}
		return finish(runTrees(op, a.polys, a.polys, b.polys, &rep))
	}

	switch {
	case b.IsEmpty():
		rep.Bypassed = len(a.polys)
		return finish(a.Polygons())
	case a.IsEmpty():
		if op == OpUnion {
			return finish(b.Polygons())
		}
		return finish(nil)
	}

	bb, _ := b.Bounds()
	work, bypass := partition(a.polys, bb)
	rep.Bypassed = len(bypass)

	if len(work) == 0 {
		// No face of a comes near b, so b is wholly inside a or wholly
		// outside it.
		inside := a.Contains(b.polys[0].Centroid())
		switch {
		case op == OpUnion && inside:
			return finish(bypass)
		case op == OpUnion:
			return finish(append(bypass, b.polys...))
		case inside:
			for _, p := range b.polys {
				bypass = append(bypass, p.Flipped())
			}
			return finish(bypass)
		default:
			return finish(bypass)
		}
	}

	return finish(append(bypass, runTrees(op, work, a.polys, b.polys, &rep)...))
}

// partition splits polys into those whose bounds overlap bb and those
// whose bounds do not.
func partition(polys []*geom.Polygon, bb sdf.Box3) (overlap, disjoint []*geom.Polygon) {
	for _, p := range polys {
		if geom.Overlaps(p.Bounds(), bb) {
			overlap = append(overlap, p)
		} else {
			disjoint = append(disjoint, p)
		}
	}
	return overlap, disjoint
}

// runTrees applies op's clip sequence to a tree of pa and a tree of pb.
// The order of the steps is what makes each operation correct. pa may be
// a subset of the first operand; whole holds all of its polygons and b is
// clipped against a tree of whole, so the subset only decides which of the
// first operand's polygons are rebuilt.
func runTrees(op Op, pa, whole, pb []*geom.Polygon, rep *Report) []*geom.Polygon {
	ids := NewAllocator()
	a := NewTree(ids, pa)
	b := NewTree(ids, pb)
	ref := a
	if len(whole) != len(pa) {
		ref = NewTree(ids, whole)
	}
	invertA := func() {
		a.Invert()
		if ref != a {
			ref.Invert()
		}
	}

	switch op {
	case OpDifference:
		invertA()
		a.ClipTo(b)
		b.ClipTo(ref)
		b.Invert()
		b.ClipTo(ref)
		b.Invert()
		a.InsertAll(b.AllFragments())
		a.Invert()
	case OpIntersect:
		invertA()
		b.ClipTo(ref)
		b.Invert()
		a.ClipTo(b)
		b.ClipTo(ref)
		a.InsertAll(b.AllFragments())
		a.Invert()
	case OpUnion:
		a.ClipTo(b)
		b.ClipTo(ref)
		b.Invert()
		b.ClipTo(ref)
		b.Invert()
		a.InsertAll(b.AllFragments())
	}

	rep.Fragments = a.Len()
	return a.Recombined()
}
