package graph

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs all structural and geometric checks on the design graph and
// returns the findings. An empty slice means the graph is valid. Validate
// never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	errs = append(errs, validateDimensions(g)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every child ID points to a node that
// exists in g.Nodes.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective and that every entry
// points to an existing node carrying that name.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		node, ok := g.Nodes[id]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if node.Name != name {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("name index entry %q points at node named %q", name, node.Name),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateArity checks child counts against node kinds.
func validateArity(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	add := func(n *Node, sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}

	for _, node := range g.Nodes {
		n := len(node.Children)
		switch node.Kind {
		case NodePrimitive:
			if n != 0 {
				add(node, SeverityError, "primitive has %d children, want none", n)
			}
			if _, ok := node.Data.(Primitive); !ok {
				add(node, SeverityError, "primitive has %T payload", node.Data)
			}
		case NodeTransform:
			if n != 1 {
				add(node, SeverityError, "transform has %d children, want 1", n)
			}
			if _, ok := node.Data.(TransformData); !ok {
				add(node, SeverityError, "transform has %T payload", node.Data)
			}
		case NodeBoolean:
			d, ok := node.Data.(BooleanData)
			if !ok {
				add(node, SeverityError, "boolean has %T payload", node.Data)
				continue
			}
			switch n {
			case 0:
				add(node, SeverityError, "%s has no operands", d.Op)
			case 1:
				add(node, SeverityWarning, "%s has a single operand", d.Op)
			}
		case NodeGroup:
			if n == 0 {
				add(node, SeverityError, "group is empty")
			}
		default:
			add(node, SeverityError, "unknown node kind %d", int(node.Kind))
		}
	}

	return errs
}

// validateDimensions checks that every primitive has a positive size and a
// usable segment count.
func validateDimensions(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	add := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}
	size := func(n *Node, prim PrimitiveKind, v Vec3) {
		for _, c := range []struct {
			axis string
			val  float64
		}{{"X", v.X}, {"Y", v.Y}, {"Z", v.Z}} {
			if c.val <= geom.Epsilon {
				add(n, "%s dimension %s is %.4f, must be positive", prim, c.axis, c.val)
			}
		}
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			size(node, PrimBox, d.Size)
		case WedgeData:
			size(node, PrimWedge, d.Size)
		case CylinderData:
			if d.Height <= geom.Epsilon {
				add(node, "cylinder height is %.4f, must be positive", d.Height)
			}
			if d.Radius <= geom.Epsilon {
				add(node, "cylinder radius is %.4f, must be positive", d.Radius)
			}
			if d.Segments != 0 && d.Segments < 3 {
				add(node, "cylinder has %d segments, need at least 3", d.Segments)
			}
		}
	}

	return errs
}
