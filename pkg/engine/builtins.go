package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a design graph node built by a solid-producing builtin.
// The node joins the graph once something consumes it.
type sexpSolid struct {
	node *graph.Node
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	if s.node.Name != "" {
		return fmt.Sprintf("(solid %q)", s.node.Name)
	}
	return fmt.Sprintf("(solid %s %s)", s.node.Kind, s.node.ID.Short())
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSurface wraps the result of `paint`.
type sexpSurface struct {
	surface graph.Surface
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(paint :texture %q :color %#x)", s.surface.Paint.Texture, s.surface.Color)
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword acts as a flag.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int64, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false; a bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toPass(s zygo.Sexp) (geom.RenderPass, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	for _, p := range []geom.RenderPass{geom.PassSolid, geom.PassCutout, geom.PassTranslucent} {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid pass %q, expected solid, cutout or translucent", name)
}

func toSolid(s zygo.Sexp) (*graph.Node, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.node, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toSurface(s zygo.Sexp) (*graph.Surface, error) {
	if v, ok := s.(*sexpSurface); ok {
		surface := v.surface
		return &surface, nil
	}
	return nil, fmt.Errorf("expected paint, got %T (%s)", s, s.SexpString(nil))
}

// toVec3Args reads a vector from either a single vec3 or three numbers.
func toVec3Args(args []zygo.Sexp) (graph.Vec3, error) {
	switch len(args) {
	case 1:
		if v, ok := args[0].(*sexpVec3); ok {
			return v.vec, nil
		}
		return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", args[0], args[0].SexpString(nil))
	case 3:
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return graph.Vec3{}, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return graph.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// formString renders a builtin call for Node.Form.
func formString(name string, args []zygo.Sexp) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if kw, ok := isKW(a); ok {
			parts = append(parts, ":"+kw)
			continue
		}
		parts = append(parts, a.SexpString(nil))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder owns the graph being populated by one evaluation.
type builder struct {
	g        *graph.DesignGraph
	defined  []graph.NodeID // defsolid order
	declared bool           // an explicit output or group ran
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g}
}

// node builds a node, adds its children to the graph and wraps it.
func (b *builder) node(kind graph.NodeKind, form string, data graph.NodeData, children ...*graph.Node) *sexpSolid {
	ids := make([]graph.NodeID, len(children))
	for i, c := range children {
		b.g.AddNode(c)
		ids[i] = c.ID
	}
	return &sexpSolid{node: graph.NewNode(kind, "", form, data, ids...)}
}

// finish picks roots when the script declared none: every defined solid
// and the script's final value, unless another node uses them.
func (b *builder) finish(last zygo.Sexp) {
	if b.declared {
		return
	}
	candidates := b.defined
	if s, ok := last.(*sexpSolid); ok {
		b.g.AddNode(s.node)
		candidates = append(candidates, s.node.ID)
	}
	used := make(map[graph.NodeID]bool)
	for _, n := range b.g.Nodes {
		for _, c := range n.Children {
			used[c] = true
		}
	}
	for _, id := range candidates {
		if !used[id] {
			used[id] = true
			b.g.AddRoot(id)
		}
	}
}

// register installs all kerf DSL builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func (b *builder) register(env *zygo.Zlisp) {
	g := b.g

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := toVec3Args(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// (paint :texture "oak" :surface "top" :pass :cutout :emissive true :color 4278190335)
	env.AddFunction("paint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		s := graph.Surface{Color: g.Defaults.Color}

		for _, key := range []string{"texture", "surface"} {
			v, ok := pa.kw[key]
			if !ok {
				continue
			}
			str, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint: %s: %w", key, err)
			}
			if key == "texture" {
				s.Paint.Texture = str
			} else {
				s.Paint.Surface = str
			}
		}
		if v, ok := pa.kw["pass"]; ok {
			p, err := toPass(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint: pass: %w", err)
			}
			s.Paint.Pass = p
		}
		if v, ok := pa.kw["emissive"]; ok {
			f, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint: emissive: %w", err)
			}
			s.Paint.Emissive = f
		}
		if v, ok := pa.kw["lock-uv"]; ok {
			f, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint: lock-uv: %w", err)
			}
			s.Paint.LockUV = f
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("paint: color: %w", err)
			}
			if c < 0 || c > 0xFFFFFFFF {
				return zygo.SexpNull, fmt.Errorf("paint: color %d is not a packed ARGB value", c)
			}
			s.Color = uint32(c)
		}
		return &sexpSurface{surface: s}, nil
	})

	// (box 400 200 19 :paint p) or (box (vec3 400 200 19))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size, err := toVec3Args(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		d := graph.BoxData{Size: size}
		if d.Surface, err = kwSurface(pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return b.node(graph.NodePrimitive, formString(name, args), d), nil
	})

	// (wedge 10 40 40 :paint p)
	env.AddFunction("wedge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size, err := toVec3Args(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wedge: size: %w", err)
		}
		d := graph.WedgeData{Size: size}
		if d.Surface, err = kwSurface(pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("wedge: %w", err)
		}
		return b.node(graph.NodePrimitive, formString(name, args), d), nil
	})

	// (cylinder :radius 4 :height 10 :segments 16 :paint p) or (cylinder 4 10)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var d graph.CylinderData
		values := map[string]*float64{"radius": &d.Radius, "height": &d.Height}

		switch len(pa.positional) {
		case 0:
		case 2:
			pa.kw["radius"] = pa.positional[0]
			pa.kw["height"] = pa.positional[1]
		default:
			return zygo.SexpNull, fmt.Errorf("cylinder: expected radius and height, got %d positional arguments", len(pa.positional))
		}
		for _, key := range []string{"radius", "height"} {
			v, ok := pa.kw[key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cylinder: %s is required", key)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", key, err)
			}
			*values[key] = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			d.Segments = int(n)
		}
		var err error
		if d.Surface, err = kwSurface(pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return b.node(graph.NodePrimitive, formString(name, args), d), nil
	})

	// (translate solid 10 0 0) or (translate solid (vec3 10 0 0))
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		child, v, err := solidAndVec(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return b.node(graph.NodeTransform, formString(name, args), graph.TransformData{Translation: &v}, child), nil
	})

	// (rotate solid 0 0 90), angles in degrees
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		child, v, err := solidAndVec(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		return b.node(graph.NodeTransform, formString(name, args), graph.TransformData{Rotation: &v}, child), nil
	})

	// (union a b ...), (difference a b ...), (intersect a b ...)
	for _, opName := range []string{"union", "difference", "subtract", "intersect", "intersection"} {
		op, _ := csg.ParseOp(opName)
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least one solid", name)
			}
			children := make([]*graph.Node, len(args))
			for i, a := range args {
				n, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, i, err)
				}
				children[i] = n
			}
			return b.node(graph.NodeBoolean, formString(name, args), graph.BooleanData{Op: op}, children...), nil
		})
	}

	// (defsolid "name" expr)
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a body expression")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		if solidName == "" {
			return zygo.SexpNull, fmt.Errorf("defsolid: name must not be empty")
		}
		if g.Lookup(solidName) != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %q is already defined", solidName)
		}
		body, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: body: %w", err)
		}

		named := graph.NewNode(body.Kind, solidName, body.Form, body.Data, body.Children...)
		g.AddNode(named)
		b.defined = append(b.defined, named.ID)
		return &sexpSolid{node: named}, nil
	})

	// (solid "name")
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}
		n := g.Lookup(solidName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("solid: no solid named %q", solidName)
		}
		return &sexpSolid{node: n}, nil
	})

	// (group "name" a b ...): each member becomes its own output mesh.
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		groupName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		if g.Lookup(groupName) != nil {
			return zygo.SexpNull, fmt.Errorf("group: %q is already defined", groupName)
		}
		var ids []graph.NodeID
		for i, a := range args[1:] {
			n, err := toSolid(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: member %d: %w", i+1, err)
			}
			g.AddNode(n)
			ids = append(ids, n.ID)
		}
		n := graph.NewNode(graph.NodeGroup, groupName, formString(name, args), graph.GroupData{}, ids...)
		g.AddNode(n)
		g.AddRoot(n.ID)
		b.declared = true
		return &sexpSolid{node: n}, nil
	})

	// (output a b ...): render each solid as its own mesh.
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for i, a := range args {
			n, err := toSolid(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("output: argument %d: %w", i, err)
			}
			g.AddNode(n)
			g.AddRoot(n.ID)
		}
		b.declared = true
		return zygo.SexpNull, nil
	})

	// (defaults :segments 24 :paint p)
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("defaults takes keyword arguments only")
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: segments: %w", err)
			}
			if n < 3 {
				return zygo.SexpNull, fmt.Errorf("defaults: segments must be at least 3, got %d", n)
			}
			g.Defaults.Segments = int(n)
		}
		if v, ok := pa.kw["paint"]; ok {
			s, err := toSurface(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: paint: %w", err)
			}
			g.Defaults.Paint = s.Paint
			g.Defaults.Color = s.Color
		}
		return zygo.SexpNull, nil
	})
}

// kwSurface reads the optional :paint keyword.
func kwSurface(pa kwArgs) (*graph.Surface, error) {
	v, ok := pa.kw["paint"]
	if !ok {
		return nil, nil
	}
	s, err := toSurface(v)
	if err != nil {
		return nil, fmt.Errorf("paint: %w", err)
	}
	return s, nil
}

// solidAndVec splits (solid x y z) or (solid vec3) arguments.
func solidAndVec(args []zygo.Sexp) (*graph.Node, graph.Vec3, error) {
	if len(args) < 2 {
		return nil, graph.Vec3{}, fmt.Errorf("expected a solid and a vector")
	}
	n, err := toSolid(args[0])
	if err != nil {
		return nil, graph.Vec3{}, err
	}
	v, err := toVec3Args(args[1:])
	if err != nil {
		return nil, graph.Vec3{}, err
	}
	return n, v, nil
}
