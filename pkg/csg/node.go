package csg

import (
	"github.com/chazu/kerf/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Node is a BSP tree. Each node holds the coplanar fragments that define
// its plane and optional front and back subtrees. A node without fragments
// has no plane and no children.
//
// Back subtrees are solid space: a missing back child means everything
// behind the plane is inside the solid.
type Node struct {
	ids       *Allocator
	plane     Plane
	hasPlane  bool
	fragments []*Fragment
	front     *Node
	back      *Node
}

// NewNode returns an empty tree that allocates IDs from ids.
func NewNode(ids *Allocator) *Node {
	return &Node{ids: ids}
}

// NewTree wraps polys in fresh fragments and inserts them into a new tree.
func NewTree(ids *Allocator, polys []*geom.Polygon) *Node {
	n := NewNode(ids)
	for _, p := range polys {
		n.Insert(NewFragment(ids, p))
	}
	return n
}

// Plane returns the node's splitting plane. ok is false for an empty node.
func (n *Node) Plane() (p Plane, ok bool) {
	return n.plane, n.hasPlane
}

// Fragments returns the fragments stored at this node only.
func (n *Node) Fragments() []*Fragment {
	return append([]*Fragment(nil), n.fragments...)
}

// Front returns the front subtree, or nil.
func (n *Node) Front() *Node {
	return n.front
}

// Back returns the back subtree, or nil.
func (n *Node) Back() *Node {
	return n.back
}

// Insert adds a fragment to the tree. The first fragment of an empty node
// defines its plane; later ones are split against it, coplanar pieces stay
// and the rest descend. Runs on an explicit stack so deep trees cannot
// exhaust the goroutine stack.
func (n *Node) Insert(f *Fragment) {
	type item struct {
		node *Node
		frag *Fragment
	}
	stack := []item{{n, f}}
	var front, back []*Fragment
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := it.node

		if !node.hasPlane {
			node.plane = NewPlane(node.ids, it.frag)
			node.hasPlane = true
			node.fragments = append(node.fragments, it.frag)
			continue
		}

		front, back = front[:0], back[:0]
		node.plane.Split(node.ids, it.frag, &node.fragments, &node.fragments, &front, &back)
		if len(front) > 0 {
			if node.front == nil {
				node.front = NewNode(node.ids)
			}
			for _, p := range front {
				stack = append(stack, item{node.front, p})
			}
		}
		if len(back) > 0 {
			if node.back == nil {
				node.back = NewNode(node.ids)
			}
			for _, p := range back {
				stack = append(stack, item{node.back, p})
			}
		}
	}
}

// InsertAll inserts every fragment in order.
func (n *Node) InsertAll(fs []*Fragment) {
	for _, f := range fs {
		n.Insert(f)
	}
}

// Invert turns solid space into empty space and back: every fragment flips,
// every plane flips, and front and back subtrees swap.
func (n *Node) Invert() {
	n.walk(func(node *Node) {
		for _, f := range node.fragments {
			f.Invert()
		}
		if node.hasPlane {
			node.plane = node.plane.Flipped()
		}
		node.front, node.back = node.back, node.front
	})
}

// ClipTo removes from this tree every part of every fragment that lies
// inside other's solid space.
func (n *Node) ClipTo(other *Node) {
	n.walk(func(node *Node) {
		node.fragments = other.clip(node.fragments)
	})
}

// clip returns the parts of fs outside this tree's solid space. Coplanar
// fragments facing the same way as a plane are kept with the front side.
func (n *Node) clip(fs []*Fragment) []*Fragment {
	type item struct {
		node  *Node
		frags []*Fragment
	}
	var out []*Fragment
	stack := []item{{n, fs}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := it.node

		if !node.hasPlane {
			out = append(out, it.frags...)
			continue
		}

		var front, back []*Fragment
		for _, f := range it.frags {
			node.plane.Split(node.ids, f, &front, &back, &front, &back)
		}
		if node.front != nil {
			stack = append(stack, item{node.front, front})
		} else {
			out = append(out, front...)
		}
		if node.back != nil {
			stack = append(stack, item{node.back, back})
		}
	}
	return out
}

// Contains reports whether pt falls in the tree's solid space. A point on a
// splitting plane follows the front side. An empty tree contains nothing.
func (n *Node) Contains(pt v3.Vec) bool {
	node := n
	for node.hasPlane {
		if node.plane.Classify(pt) == Back {
			if node.back == nil {
				return true
			}
			node = node.back
			continue
		}
		if node.front == nil {
			return false
		}
		node = node.front
	}
	return false
}

// AllFragments returns every fragment in the tree in pre-order. The result
// still contains split artifacts; Recombined is the output form.
func (n *Node) AllFragments() []*Fragment {
	var out []*Fragment
	n.walk(func(node *Node) {
		out = append(out, node.fragments...)
	})
	return out
}

// Len returns the number of fragments in the tree.
func (n *Node) Len() int {
	count := 0
	n.walk(func(node *Node) {
		count += len(node.fragments)
	})
	return count
}

// Recombined rejoins split fragments of the same original polygon where
// that yields a convex polygon, and returns the result as plain polygons.
func (n *Node) Recombined() []*geom.Polygon {
	return recombine(n.ids, n.AllFragments())
}

// walk visits every node in pre-order. fn may swap a node's children; the
// children are read after fn returns.
func (n *Node) walk(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		if node.back != nil {
			stack = append(stack, node.back)
		}
		if node.front != nil {
			stack = append(stack, node.front)
		}
	}
}
