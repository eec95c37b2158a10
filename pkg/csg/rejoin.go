package csg

import (
	"sort"

	"github.com/chazu/kerf/pkg/geom"
)

// recombine groups fragments by original polygon, rejoins pieces along
// shared split edges until nothing more merges, and materializes the
// survivors.
func recombine(ids *Allocator, frags []*Fragment) []*geom.Polygon {
	groups := make(map[uint64][]*Fragment)
	var order []uint64
	for _, f := range frags {
		a := f.AncestorID()
		if _, ok := groups[a]; !ok {
			order = append(order, a)
		}
		groups[a] = append(groups[a], f)
	}

	out := make([]*geom.Polygon, 0, len(frags))
	for _, a := range order {
		fs := groups[a]
		if len(fs) > 1 {
			b := newBucket(ids, fs)
			b.rejoin()
			fs = b.fragments()
		}
		for _, f := range fs {
			out = append(out, f.Polygon())
		}
	}
	return out
}

// edgeRef names one edge of one fragment.
type edgeRef struct {
	frag *Fragment
	edge int
}

// bucket holds the fragments of one original polygon and an index from
// internal line ID to the edges carrying it.
type bucket struct {
	ids    *Allocator
	alive  map[uint64]*Fragment
	order  []*Fragment
	edges  map[int][]edgeRef
	queue  []int
	queued map[int]bool
}

func newBucket(ids *Allocator, fs []*Fragment) *bucket {
	b := &bucket{
		ids:    ids,
		alive:  make(map[uint64]*Fragment, len(fs)),
		edges:  make(map[int][]edgeRef),
		queued: make(map[int]bool),
	}
	for _, f := range fs {
		b.add(f)
	}
	lines := make([]int, 0, len(b.edges))
	for id, refs := range b.edges {
		if len(refs) > 1 {
			lines = append(lines, id)
		}
	}
	sort.Ints(lines)
	for _, id := range lines {
		b.enqueue(id)
	}
	return b
}

func (b *bucket) add(f *Fragment) {
	b.alive[f.id] = f
	b.order = append(b.order, f)
	for i, id := range f.lineIDs {
		if id > 0 {
			b.edges[id] = append(b.edges[id], edgeRef{frag: f, edge: i})
		}
	}
}

func (b *bucket) enqueue(id int) {
	if !b.queued[id] {
		b.queued[id] = true
		b.queue = append(b.queue, id)
	}
}

// live returns the edges tagged id whose fragments are still in the bucket,
// dropping the stale ones from the index.
func (b *bucket) live(id int) []edgeRef {
	refs := b.edges[id]
	kept := refs[:0]
	for _, r := range refs {
		if b.alive[r.frag.id] == r.frag {
			kept = append(kept, r)
		}
	}
	b.edges[id] = kept
	return kept
}

// rejoin merges until a fixed point: every line ID is retried whenever a
// merge produces a fragment carrying it.
func (b *bucket) rejoin() {
	for len(b.queue) > 0 {
		id := b.queue[0]
		b.queue = b.queue[1:]
		b.queued[id] = false
		for b.joinOnce(id) {
		}
	}
}

// joinOnce tries every pair of live edges tagged id and performs the first
// merge that succeeds.
func (b *bucket) joinOnce(id int) bool {
	refs := b.live(id)
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			x, y := refs[i], refs[j]
			if x.frag == y.frag {
				continue
			}
			m := join(b.ids, x.frag, x.edge, y.frag, y.edge)
			if m == nil {
				continue
			}
			delete(b.alive, x.frag.id)
			delete(b.alive, y.frag.id)
			b.add(m)
			for _, l := range m.lineIDs {
				if l > 0 && l != id {
					b.enqueue(l)
				}
			}
			return true
		}
	}
	return false
}

// fragments returns the surviving fragments in insertion order.
func (b *bucket) fragments() []*Fragment {
	out := make([]*Fragment, 0, len(b.alive))
	for _, f := range b.order {
		if b.alive[f.id] == f {
			out = append(out, f)
		}
	}
	return out
}

// join merges fragment a and fragment c across edge ai of a and edge ci of
// c. The edges must run in opposite directions between the same two points.
// It returns nil when the fragments differ in facing, the edges do not
// match, or the merged loop would be degenerate or concave.
func join(ids *Allocator, a *Fragment, ai int, c *Fragment, ci int) *Fragment {
	if a.inverted != c.inverted {
		return nil
	}
	n, m := a.Len(), c.Len()
	if !a.poly.Vertex(ai).Coincident(c.poly.Vertex(ci+1)) ||
		!a.poly.Vertex(ai+1).Coincident(c.poly.Vertex(ci)) {
		return nil
	}

	// Walk a from the far end of the shared edge round to its near end,
	// then continue through c's remaining vertices back to the start.
	verts := make([]geom.Vertex, 0, n+m-2)
	lines := make([]int, 0, n+m-2)
	for k := 1; k <= n; k++ {
		idx := (ai + k) % n
		verts = append(verts, a.poly.Vertex(idx))
		if k < n {
			lines = append(lines, a.lineIDs[idx])
		} else {
			lines = append(lines, c.lineIDs[(ci+1)%m])
		}
	}
	for k := 2; k < m; k++ {
		idx := (ci + k) % m
		verts = append(verts, c.poly.Vertex(idx))
		lines = append(lines, c.lineIDs[idx])
	}

	// The two seam vertices sit at the end of a's run and at the start of
	// the loop. Drop each one if it no longer forms a corner.
	verts, lines = dropStraight(verts, lines, n-1)
	verts, lines = dropStraight(verts, lines, 0)

	if len(verts) < 3 {
		return nil
	}
	for i := range verts {
		if verts[i].Coincident(verts[(i+1)%len(verts)]) {
			return nil
		}
	}
	if !geom.IsConvexLoop(verts, a.poly.Normal()) {
		return nil
	}
	return a.derive(ids, verts, lines)
}

// dropStraight removes vertex i when it lies on the segment between its
// neighbours and both edges through it carry the same line ID. A straight
// vertex between differently tagged edges is kept.
func dropStraight(verts []geom.Vertex, lines []int, i int) ([]geom.Vertex, []int) {
	n := len(verts)
	if n <= 3 || i >= n {
		return verts, lines
	}
	prev := (i + n - 1) % n
	next := (i + 1) % n
	if lines[prev] != lines[i] || !straight(verts[prev], verts[i], verts[next]) {
		return verts, lines
	}
	verts = append(verts[:i:i], verts[i+1:]...)
	lines = append(lines[:i:i], lines[i+1:]...)
	return verts, lines
}

// straight reports whether q lies strictly between p and r, within Epsilon
// of the segment. A near-zero p→r span is never straight.
func straight(p, q, r geom.Vertex) bool {
	d := r.Pos.Sub(p.Pos)
	l := d.Length()
	if l < geom.Epsilon {
		return false
	}
	pq := q.Pos.Sub(p.Pos)
	if pq.Cross(d).Length()/l > geom.Epsilon {
		return false
	}
	t := pq.Dot(d) / (l * l)
	return t > 0 && t < 1
}
