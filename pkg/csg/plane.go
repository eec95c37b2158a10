package csg

import (
	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Side is the position of a point or polygon relative to a plane. Polygon
// sides are the bitwise OR of their vertex sides.
type Side int

const (
	Coplanar Side = 0
	Front    Side = 1
	Back     Side = 2
	Spanning Side = Front | Back
)

func (s Side) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}

// Plane is a splitting plane: the points p with Normal·p = Distance.
type Plane struct {
	Normal   v3.Vec
	Distance float64

	// lineID tags every edge this plane cuts into a fragment.
	lineID int
}

// NewPlane derives the plane of a fragment from its effective normal and
// first vertex, with a fresh line ID for the edges it will create.
func NewPlane(ids *Allocator, f *Fragment) Plane {
	n := f.Normal()
	return Plane{
		Normal:   n,
		Distance: n.Dot(f.poly.Vertex(0).Pos),
		lineID:   ids.LineID(),
	}
}

// LineID returns the ID shared by the edges this plane creates.
func (p Plane) LineID() int {
	return p.lineID
}

// Flipped returns the plane facing the other way. The line ID is kept.
func (p Plane) Flipped() Plane {
	return Plane{Normal: p.Normal.Neg(), Distance: -p.Distance, lineID: p.lineID}
}

// SignedDistance returns the distance of pt above the plane.
func (p Plane) SignedDistance(pt v3.Vec) float64 {
	return p.Normal.Dot(pt) - p.Distance
}

// Classify returns Front, Back or Coplanar for a point.
func (p Plane) Classify(pt v3.Vec) Side {
	d := p.SignedDistance(pt)
	switch {
	case d > geom.Epsilon:
		return Front
	case d < -geom.Epsilon:
		return Back
	default:
		return Coplanar
	}
}

// Split sorts f into one of the four lists. Coplanar fragments go to
// coplanarFront or coplanarBack by facing; fragments wholly on one side are
// appended unchanged; spanning fragments are cut in two. Pieces with fewer
// than three vertices are dropped.
//
// The new edge each piece gets along the plane is tagged with the plane's
// line ID, so the two pieces can be found and rejoined later. Edges that
// were cut keep the ID of the edge they came from.
func (p Plane) Split(ids *Allocator, f *Fragment, coplanarFront, coplanarBack, front, back *[]*Fragment) {
	n := f.poly.Len()
	sides := make([]Side, n)
	var polySide Side
	for i := 0; i < n; i++ {
		sides[i] = p.Classify(f.poly.Vertex(i).Pos)
		polySide |= sides[i]
	}

	switch polySide {
	case Coplanar:
		if p.Normal.Dot(f.Normal()) > 0 {
			*coplanarFront = append(*coplanarFront, f)
		} else {
			*coplanarBack = append(*coplanarBack, f)
		}
	case Front:
		*front = append(*front, f)
	case Back:
		*back = append(*back, f)
	case Spanning:
		var fv, bv []geom.Vertex
		var fl, bl []int
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			si, sj := sides[i], sides[j]
			vi, vj := f.poly.Vertex(i), f.poly.Vertex(j)
			edge := f.lineIDs[i]

			if si != Back {
				id := edge
				if si == Coplanar && sj == Back {
					// The front piece leaves the plane here and only
					// returns to it after the back run: a new edge.
					id = p.lineID
				}
				fv = append(fv, vi)
				fl = append(fl, id)
			}
			if si != Front {
				id := edge
				if si == Coplanar && sj == Front {
					id = p.lineID
				}
				bv = append(bv, vi)
				bl = append(bl, id)
			}
			if si|sj == Spanning {
				di := p.SignedDistance(vi.Pos)
				t := -di / p.Normal.Dot(vj.Pos.Sub(vi.Pos))
				x := vi.Interpolate(vj, t)
				fv = append(fv, x)
				bv = append(bv, x)
				if si == Front {
					fl = append(fl, p.lineID)
					bl = append(bl, edge)
				} else {
					fl = append(fl, edge)
					bl = append(bl, p.lineID)
				}
			}
		}
		if len(fv) >= 3 {
			*front = append(*front, f.derive(ids, fv, fl))
		}
		if len(bv) >= 3 {
			*back = append(*back, f.derive(ids, bv, bl))
		}
	}
}
