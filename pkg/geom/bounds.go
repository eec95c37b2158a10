package geom

import "github.com/deadsy/sdfx/sdf"

// BoundsOf returns the box enclosing every polygon. ok is false when
// polys is empty.
func BoundsOf(polys []*Polygon) (b sdf.Box3, ok bool) {
	for _, p := range polys {
		pb := p.Bounds()
		if !ok {
			b, ok = pb, true
			continue
		}
		b.Min = b.Min.Min(pb.Min)
		b.Max = b.Max.Max(pb.Max)
	}
	return b, ok
}

// Overlaps reports whether two boxes intersect. Boxes that touch within
// Epsilon count as overlapping, so a face lying on the other box's surface
// is never treated as disjoint.
func Overlaps(a, b sdf.Box3) bool {
	return a.Min.X <= b.Max.X+Epsilon && b.Min.X <= a.Max.X+Epsilon &&
		a.Min.Y <= b.Max.Y+Epsilon && b.Min.Y <= a.Max.Y+Epsilon &&
		a.Min.Z <= b.Max.Z+Epsilon && b.Min.Z <= a.Max.Z+Epsilon
}
