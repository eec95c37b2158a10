package graph

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
)

// DefaultSegments is the default cylinder side count.
const DefaultSegments = 32

// Defaults contains graph-wide default settings.
type Defaults struct {
	Paint    geom.Paint `json:"paint"`    // paint for primitives without a surface
	Color    uint32     `json:"color"`    // packed ARGB vertex color
	Segments int        `json:"segments"` // cylinder side count
	Units    string     `json:"units"`    // "mm" (only option for now)
}

// DesignGraph is the top-level immutable data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  Defaults          `json:"defaults"`
	RunID     string            `json:"run_id,omitempty"` // identifies the evaluation that built the graph
}

// New creates an empty DesignGraph with default settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults: Defaults{
			Color:    geom.White,
			Segments: DefaultSegments,
			Units:    "mm",
		},
	}
}

// AddNode adds a node to the graph. Adding a node whose ID is already
// present is a no-op apart from recording its name.
func (g *DesignGraph) AddNode(n *Node) {
	if _, ok := g.Nodes[n.ID]; !ok {
		g.Nodes[n.ID] = n
	}
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Primitives returns all primitive nodes in the graph.
func (g *DesignGraph) Primitives() []*Node {
	return g.ofKind(NodePrimitive)
}

// Booleans returns all boolean nodes in the graph.
func (g *DesignGraph) Booleans() []*Node {
	return g.ofKind(NodeBoolean)
}

func (g *DesignGraph) ofKind(k NodeKind) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}

// NameOf returns the user-assigned name of id, or "".
func (g *DesignGraph) NameOf(id NodeID) string {
	if n := g.Nodes[id]; n != nil {
		return n.Name
	}
	return ""
}
