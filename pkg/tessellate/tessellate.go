// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per part: each root is a
// part, except that a group root contributes one part per member.
package tessellate

import (
	"context"
	"fmt"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"golang.org/x/sync/errgroup"
)

// part is one output mesh: a node and the name it is reported under.
type part struct {
	name string
	node *graph.Node
}

// Tessellate walks the design graph and produces one triangle mesh per part
// using the provided geometry kernel. Parts are built concurrently and
// returned in root order. The tessellator never mutates the graph.
func Tessellate(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	for _, e := range graph.Validate(g) {
		if e.Severity == graph.SeverityError {
			return nil, fmt.Errorf("tessellate: invalid graph: %w", e)
		}
	}

	parts, err := collectParts(g)
	if err != nil {
		return nil, err
	}

	w := &walker{g: g, k: k, memo: make(map[graph.NodeID]kernel.Solid)}
	meshes := make([]*kernel.Mesh, len(parts))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		eg.Go(func() error {
			solid, err := w.build(ctx, p.node)
			if err != nil {
				return fmt.Errorf("tessellate: part %s: %w", p.name, err)
			}
			mesh, err := k.ToMesh(solid)
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.name, err)
			}
			mesh.PartName = p.name
			meshes[i] = mesh

			logs.WithTag("part", p.name).
				WithTag("node", p.node.ID.Short()).
				WithTag("triangles", mesh.TriangleCount()).
				Debug("part tessellated")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// collectParts expands roots into parts. Nested groups are flattened. The
// graph is known to be acyclic.
func collectParts(g *graph.DesignGraph) ([]part, error) {
	var parts []part
	var expand func(n *graph.Node, prefix string) error
	expand = func(n *graph.Node, prefix string) error {
		if n.Kind != graph.NodeGroup {
			parts = append(parts, part{name: partName(n, prefix), node: n})
			return nil
		}
		for i, cid := range n.Children {
			c := g.Get(cid)
			if c == nil {
				return fmt.Errorf("tessellate: group %s references missing node %s", n.ID.Short(), cid.Short())
			}
			if err := expand(c, fmt.Sprintf("%s/%d", partName(n, prefix), i)); err != nil {
				return err
			}
		}
		return nil
	}

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			return nil, fmt.Errorf("tessellate: root %s does not exist", rootID.Short())
		}
		if err := expand(root, ""); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

// partName prefers the node's Name, then the group position, then the
// short ID.
func partName(n *graph.Node, fallback string) string {
	switch {
	case n.Name != "":
		return n.Name
	case fallback != "":
		return fallback
	default:
		return n.ID.Short()
	}
}

// walker builds kernel solids for graph nodes. Solids are immutable, so
// results are shared between parts.
type walker struct {
	g *graph.DesignGraph
	k kernel.Kernel

	mu   sync.Mutex
	memo map[graph.NodeID]kernel.Solid
}

func (w *walker) cached(id graph.NodeID) (kernel.Solid, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.memo[id]
	return s, ok
}

func (w *walker) store(id graph.NodeID, s kernel.Solid) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.memo[id] = s
}

// build returns the solid for n.
func (w *walker) build(ctx context.Context, n *graph.Node) (kernel.Solid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s, ok := w.cached(n.ID); ok {
		return s, nil
	}

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = w.primitive(n)
	case graph.NodeTransform:
		s, err = w.transform(ctx, n)
	case graph.NodeBoolean:
		s, err = w.boolean(ctx, n)
	case graph.NodeGroup:
		// A group used as an operand is the union of its members.
		s, err = w.fold(ctx, n, csg.OpUnion)
	default:
		err = fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}

	w.store(n.ID, s)
	return s, nil
}

// primitive creates and paints the geometry for a primitive node.
func (w *walker) primitive(n *graph.Node) (kernel.Solid, error) {
	var s kernel.Solid
	switch d := n.Data.(type) {
	case graph.BoxData:
		s = w.k.Box(d.Size.X, d.Size.Y, d.Size.Z)
	case graph.WedgeData:
		s = w.k.Wedge(d.Size.X, d.Size.Y, d.Size.Z)
	case graph.CylinderData:
		segments := d.Segments
		if segments == 0 {
			segments = w.g.Defaults.Segments
		}
		s = w.k.Cylinder(d.Height, d.Radius, segments)
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	p, ok := w.k.(kernel.Painter)
	if !ok {
		return s, nil
	}
	surface := graph.Surface{Paint: w.g.Defaults.Paint, Color: w.g.Defaults.Color}
	if f := n.Data.(graph.Primitive).Finish(); f != nil {
		surface = *f
	}
	return p.Paint(s, surface.Paint, surface.Color), nil
}

// transform rotates, then translates, the child's solid.
func (w *walker) transform(ctx context.Context, n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("transform node %s has %d children, want 1", n.ID.Short(), len(n.Children))
	}
	child, err := w.child(n, 0)
	if err != nil {
		return nil, err
	}
	s, err := w.build(ctx, child)
	if err != nil {
		return nil, err
	}

	if r := td.Rotation; r != nil && (r.X != 0 || r.Y != 0 || r.Z != 0) {
		s = w.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && (t.X != 0 || t.Y != 0 || t.Z != 0) {
		s = w.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

func (w *walker) boolean(ctx context.Context, n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	return w.fold(ctx, n, bd.Op)
}

// fold combines n's children left to right: ((c0 op c1) op c2) ...
func (w *walker) fold(ctx context.Context, n *graph.Node, op csg.Op) (kernel.Solid, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%s node %s has no operands", n.Kind, n.ID.Short())
	}

	var acc kernel.Solid
	for i := range n.Children {
		child, err := w.child(n, i)
		if err != nil {
			return nil, err
		}
		s, err := w.build(ctx, child)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = s
			continue
		}
		switch op {
		case csg.OpUnion:
			acc = w.k.Union(acc, s)
		case csg.OpDifference:
			acc = w.k.Difference(acc, s)
		case csg.OpIntersect:
			acc = w.k.Intersection(acc, s)
		default:
			return nil, fmt.Errorf("boolean node %s has unknown operation %v", n.ID.Short(), op)
		}
	}
	return acc, nil
}

func (w *walker) child(n *graph.Node, i int) (*graph.Node, error) {
	c := w.g.Get(n.Children[i])
	if c == nil {
		return nil, fmt.Errorf("node %s references missing child %s", n.ID.Short(), n.Children[i].Short())
	}
	return c, nil
}
