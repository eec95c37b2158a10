package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RenderPass selects the draw pass a polygon is baked into.
type RenderPass int

const (
	PassSolid RenderPass = iota
	PassCutout
	PassTranslucent
)

func (p RenderPass) String() string {
	switch p {
	case PassSolid:
		return "solid"
	case PassCutout:
		return "cutout"
	case PassTranslucent:
		return "translucent"
	default:
		return "unknown"
	}
}

// Paint is the rendering metadata attached to a polygon. Geometry code never
// inspects it; it is copied onto every piece cut from or merged into the
// polygon.
type Paint struct {
	Texture  string     `json:"texture,omitempty"`
	Surface  string     `json:"surface,omitempty"` // surface tag assigned by the generator
	Pass     RenderPass `json:"pass"`
	Emissive bool       `json:"emissive,omitempty"` // full brightness, skips lighting
	LockUV   bool       `json:"lock_uv,omitempty"`
}

// Polygon is an ordered, convex, planar vertex loop with a face normal.
// Polygons are never modified after construction.
type Polygon struct {
	verts  []Vertex
	normal v3.Vec
	paint  Paint
}

// NewPolygon builds a polygon and derives its face normal from the loop
// using Newell's method.
func NewPolygon(paint Paint, verts ...Vertex) *Polygon {
	vs := append([]Vertex(nil), verts...)
	return &Polygon{verts: vs, normal: newellNormal(vs), paint: paint}
}

// NewPolygonWithNormal builds a polygon that keeps the supplied face normal
// instead of recomputing it. Split pieces use this so a sliver does not get
// a noisy normal from its own geometry.
func NewPolygonWithNormal(normal v3.Vec, paint Paint, verts ...Vertex) *Polygon {
	vs := append([]Vertex(nil), verts...)
	return &Polygon{verts: vs, normal: normal, paint: paint}
}

// Len returns the number of vertices.
func (p *Polygon) Len() int {
	return len(p.verts)
}

// Vertex returns vertex i. Indices wrap around the loop.
func (p *Polygon) Vertex(i int) Vertex {
	n := len(p.verts)
	return p.verts[((i%n)+n)%n]
}

// Vertices returns a copy of the vertex loop.
func (p *Polygon) Vertices() []Vertex {
	return append([]Vertex(nil), p.verts...)
}

// Normal returns the unit face normal.
func (p *Polygon) Normal() v3.Vec {
	return p.normal
}

// Paint returns the polygon's rendering metadata.
func (p *Polygon) Paint() Paint {
	return p.paint
}

// Area returns the polygon's surface area.
func (p *Polygon) Area() float64 {
	if len(p.verts) < 3 {
		return 0
	}
	var sum v3.Vec
	o := p.verts[0].Pos
	for i := 1; i+1 < len(p.verts); i++ {
		a := p.verts[i].Pos.Sub(o)
		b := p.verts[i+1].Pos.Sub(o)
		sum = sum.Add(a.Cross(b))
	}
	return math.Abs(sum.Dot(p.normal)) / 2
}

// Centroid returns the average of the vertex positions.
func (p *Polygon) Centroid() v3.Vec {
	var c v3.Vec
	for _, v := range p.verts {
		c = c.Add(v.Pos)
	}
	return c.MulScalar(1 / float64(len(p.verts)))
}

// Bounds returns the axis-aligned bounding box of the vertex positions.
func (p *Polygon) Bounds() sdf.Box3 {
	b := sdf.Box3{Min: p.verts[0].Pos, Max: p.verts[0].Pos}
	for _, v := range p.verts[1:] {
		b.Min = b.Min.Min(v.Pos)
		b.Max = b.Max.Max(v.Pos)
	}
	return b
}

// Flipped returns the polygon facing the other way: reversed winding,
// negated face normal and negated vertex normals.
func (p *Polygon) Flipped() *Polygon {
	n := len(p.verts)
	vs := make([]Vertex, n)
	for i, v := range p.verts {
		vs[n-1-i] = v.Flipped()
	}
	return &Polygon{verts: vs, normal: p.normal.Neg(), paint: p.paint}
}

// Transformed returns the polygon moved by m.
func (p *Polygon) Transformed(m sdf.M44) *Polygon {
	vs := make([]Vertex, len(p.verts))
	for i, v := range p.verts {
		vs[i] = v.Transformed(m)
	}
	return NewPolygon(p.paint, vs...)
}

// Recolored returns the polygon with every vertex set to color c.
func (p *Polygon) Recolored(c uint32) *Polygon {
	vs := make([]Vertex, len(p.verts))
	for i, v := range p.verts {
		vs[i] = v.WithColor(c)
	}
	return &Polygon{verts: vs, normal: p.normal, paint: p.paint}
}

// WithPaint returns the polygon carrying different paint.
func (p *Polygon) WithPaint(paint Paint) *Polygon {
	return &Polygon{verts: p.verts, normal: p.normal, paint: paint}
}

// Triangles fans the polygon from vertex 0. Exact for convex polygons.
func (p *Polygon) Triangles() [][3]Vertex {
	tris := make([][3]Vertex, 0, len(p.verts)-2)
	for i := 1; i+1 < len(p.verts); i++ {
		tris = append(tris, [3]Vertex{p.verts[0], p.verts[i], p.verts[i+1]})
	}
	return tris
}

// Quads cuts the polygon into pieces of at most four vertices, fanning
// quads from vertex 0 and finishing with a triangle when the count is odd.
// Consumers that bake quads only use this.
func (p *Polygon) Quads() []*Polygon {
	if len(p.verts) <= 4 {
		return []*Polygon{p}
	}
	var out []*Polygon
	i := 1
	for ; i+2 < len(p.verts); i += 2 {
		out = append(out, NewPolygonWithNormal(p.normal, p.paint,
			p.verts[0], p.verts[i], p.verts[i+1], p.verts[i+2]))
	}
	if i+1 < len(p.verts) {
		out = append(out, NewPolygonWithNormal(p.normal, p.paint,
			p.verts[0], p.verts[i], p.verts[i+1]))
	}
	return out
}

// IsPlanar reports whether every vertex lies within Epsilon of the plane
// through vertex 0.
func (p *Polygon) IsPlanar() bool {
	o := p.verts[0].Pos
	for _, v := range p.verts[1:] {
		if !NearZero(p.normal.Dot(v.Pos.Sub(o))) {
			return false
		}
	}
	return true
}

// IsConvex reports whether every corner turns the same way around the face
// normal. Straight corners are accepted.
func (p *Polygon) IsConvex() bool {
	return IsConvexLoop(p.verts, p.normal)
}

// IsConvexLoop is the convexity test used by IsConvex, exposed for loops
// that are not yet polygons.
func IsConvexLoop(verts []Vertex, normal v3.Vec) bool {
	n := len(verts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a := verts[i].Pos
		b := verts[(i+1)%n].Pos
		c := verts[(i+2)%n].Pos
		e1 := b.Sub(a)
		e2 := c.Sub(b)
		l := e1.Length() * e2.Length()
		if l < 1e-12 {
			return false
		}
		turn := e1.Cross(e2).Dot(normal) / l
		if turn < -Epsilon {
			return false
		}
		// A zero turn is a straight corner only if the loop keeps going
		// forward; doubling back is a spike.
		if turn <= Epsilon && e1.Dot(e2) < 0 {
			return false
		}
	}
	return true
}

// Validate checks the producer contract: at least three distinct vertices,
// a usable normal, planar and convex.
func (p *Polygon) Validate() error {
	if len(p.verts) < 3 {
		return fmt.Errorf("geom: polygon has %d vertices, need at least 3", len(p.verts))
	}
	for i := range p.verts {
		if p.Vertex(i).Coincident(p.Vertex(i + 1)) {
			return fmt.Errorf("geom: polygon vertices %d and %d coincide", i, (i+1)%len(p.verts))
		}
	}
	if math.Abs(p.normal.Length()-1) > 1e-6 {
		return fmt.Errorf("geom: polygon normal %v is not unit length", p.normal)
	}
	if !p.IsPlanar() {
		return fmt.Errorf("geom: polygon is not planar")
	}
	if !p.IsConvex() {
		return fmt.Errorf("geom: polygon is not convex")
	}
	return nil
}

// newellNormal computes a unit normal for a vertex loop. Degenerate loops
// get the zero vector.
func newellNormal(vs []Vertex) v3.Vec {
	var n v3.Vec
	for i := range vs {
		a := vs[i].Pos
		b := vs[(i+1)%len(vs)].Pos
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	l := n.Length()
	if l < 1e-12 {
		return v3.Vec{}
	}
	return n.MulScalar(1 / l)
}
