package csg

import (
	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ancestorSelf marks a fragment that is itself an original polygon.
const ancestorSelf uint64 = 0

// Fragment is a polygon, or a piece of one, tagged with the bookkeeping of
// a single boolean operation.
//
// The vertex loop is kept in the winding of the original polygon. Inversion
// only toggles a flag; the effective normal and the materialized output
// account for it.
type Fragment struct {
	id       uint64
	ancestor uint64
	inverted bool
	lineIDs  []int // lineIDs[i] tags the edge from vertex i to vertex i+1
	poly     *geom.Polygon
}

// NewFragment wraps an original polygon. Every edge gets a fresh boundary
// line ID.
func NewFragment(ids *Allocator, p *geom.Polygon) *Fragment {
	assertValidInput(p)
	lineIDs := make([]int, p.Len())
	for i := range lineIDs {
		lineIDs[i] = ids.BoundaryLineID()
	}
	return &Fragment{
		id:       ids.FragmentID(),
		ancestor: ancestorSelf,
		lineIDs:  lineIDs,
		poly:     p,
	}
}

// derive builds a piece of f from a new vertex loop. The piece keeps f's
// stored normal, paint, inversion and ancestry.
func (f *Fragment) derive(ids *Allocator, verts []geom.Vertex, lineIDs []int) *Fragment {
	d := &Fragment{
		id:       ids.FragmentID(),
		ancestor: f.AncestorID(),
		inverted: f.inverted,
		lineIDs:  lineIDs,
		poly:     geom.NewPolygonWithNormal(f.poly.Normal(), f.poly.Paint(), verts...),
	}
	assertLineIDs(d)
	return d
}

// ID returns the fragment's unique ID within its operation.
func (f *Fragment) ID() uint64 {
	return f.id
}

// AncestorID returns the ID of the original polygon this fragment was cut
// from, which is its own ID for an uncut original.
func (f *Fragment) AncestorID() uint64 {
	if f.ancestor == ancestorSelf {
		return f.id
	}
	return f.ancestor
}

// IsOriginal reports whether f is an uncut input polygon.
func (f *Fragment) IsOriginal() bool {
	return f.ancestor == ancestorSelf
}

// IsInverted reports whether f currently faces opposite to its stored loop.
func (f *Fragment) IsInverted() bool {
	return f.inverted
}

// LineIDs returns a copy of the per-edge line IDs.
func (f *Fragment) LineIDs() []int {
	return append([]int(nil), f.lineIDs...)
}

// Len returns the number of vertices.
func (f *Fragment) Len() int {
	return f.poly.Len()
}

// Normal returns the effective face normal, accounting for inversion.
func (f *Fragment) Normal() v3.Vec {
	if f.inverted {
		return f.poly.Normal().Neg()
	}
	return f.poly.Normal()
}

// Invert toggles the inversion flag.
func (f *Fragment) Invert() {
	f.inverted = !f.inverted
}

// Area returns the fragment's surface area.
func (f *Fragment) Area() float64 {
	return f.poly.Area()
}

// Polygon materializes the fragment as a plain polygon. Inverted fragments
// come out with reversed winding and flipped normals.
func (f *Fragment) Polygon() *geom.Polygon {
	if f.inverted {
		return f.poly.Flipped()
	}
	return f.poly
}
