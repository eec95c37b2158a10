package engine

import (
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(paint :texture "oak")`,
			expect: `(paint "__kw_texture" "oak")`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :radius 4 :height 10)`,
			expect: `(cylinder "__kw_radius" 4 "__kw_height" 10)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \":hi\"" :x`,
			expect: `"say \":hi\"" "__kw_x"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`a-b :c`",
			expect: "`a-b :c`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def side-wall (box 1 2 3))`,
			expect: `(def side_wall (box 1 2 3))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(translate s -5 0 0)`,
			expect: `(translate s -5 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:lock-uv`,
			expect: `"__kw_lock-uv"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// eval runs source and fails the test on any error.
func eval(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalFails runs source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if g != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval errors for %s", source)
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

func TestSimpleBox(t *testing.T) {
	g := eval(t, `(defsolid "shelf" (box 600 300 19))`)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	shelf := g.Lookup("shelf")
	if shelf == nil {
		t.Fatal("expected node named 'shelf'")
	}
	if shelf.Kind != graph.NodePrimitive {
		t.Errorf("expected NodePrimitive, got %s", shelf.Kind)
	}
	bd, ok := shelf.Data.(graph.BoxData)
	if !ok {
		t.Fatalf("expected BoxData, got %T", shelf.Data)
	}
	if bd.Size != (graph.Vec3{X: 600, Y: 300, Z: 19}) {
		t.Errorf("size = %+v", bd.Size)
	}
	if bd.Surface != nil {
		t.Error("unpainted box should have no surface")
	}
	if shelf.Form != "(box 600 300 19)" {
		t.Errorf("form = %q", shelf.Form)
	}
	if len(g.Roots) != 1 || g.Roots[0] != shelf.ID {
		t.Errorf("unused defsolid should be the root")
	}
}

func TestBoxFromVec3(t *testing.T) {
	g := eval(t, `(defsolid "b" (box (vec3 1 2.5 3)))`)
	bd := g.MustLookup("b").Data.(graph.BoxData)
	if bd.Size != (graph.Vec3{X: 1, Y: 2.5, Z: 3}) {
		t.Errorf("size = %+v", bd.Size)
	}
}

func TestVariableReference(t *testing.T) {
	g := eval(t, `
(def t 19)
(defsolid "side" (box 400 200 t))
`)
	bd := g.MustLookup("side").Data.(graph.BoxData)
	if bd.Size.Z != 19 {
		t.Errorf("expected thickness=19 (from variable), got %f", bd.Size.Z)
	}
}

func TestWedge(t *testing.T) {
	g := eval(t, `(defsolid "ramp" (wedge 10 40 20))`)
	wd, ok := g.MustLookup("ramp").Data.(graph.WedgeData)
	if !ok {
		t.Fatalf("expected WedgeData, got %T", g.MustLookup("ramp").Data)
	}
	if wd.Size != (graph.Vec3{X: 10, Y: 40, Z: 20}) {
		t.Errorf("size = %+v", wd.Size)
	}
}

func TestCylinder(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   graph.CylinderData
	}{
		{"keywords", `(defsolid "c" (cylinder :radius 4 :height 10 :segments 16))`, graph.CylinderData{Radius: 4, Height: 10, Segments: 16}},
		{"positional", `(defsolid "c" (cylinder 4 10))`, graph.CylinderData{Radius: 4, Height: 10}},
		{"mixed", `(defsolid "c" (cylinder 2.5 8 :segments 6))`, graph.CylinderData{Radius: 2.5, Height: 8, Segments: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := eval(t, tt.source)
			got, ok := g.MustLookup("c").Data.(graph.CylinderData)
			if !ok {
				t.Fatalf("expected CylinderData, got %T", g.MustLookup("c").Data)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrimitiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"box missing size", `(box 1 2)`, "box: size"},
		{"box string size", `(box "a" 2 3)`, "expected number"},
		{"cylinder missing height", `(cylinder :radius 4)`, "height is required"},
		{"cylinder extra positional", `(cylinder 1 2 3)`, "positional"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"bad paint", `(box 1 1 1 :paint 3)`, "expected paint"},
		{"bad pass", `(paint :pass :glossy)`, "invalid pass"},
		{"bad color", `(paint :color -1)`, "packed ARGB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := evalFails(t, tt.source); !strings.Contains(msg, tt.want) {
				t.Errorf("message %q does not contain %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Paint
// ---------------------------------------------------------------------------

func TestPaint(t *testing.T) {
	g := eval(t, `
(def oak (paint :texture "oak" :surface "top" :pass :cutout :emissive true :color 4278190335))
(defsolid "top" (box 10 10 1 :paint oak))
`)
	bd := g.MustLookup("top").Data.(graph.BoxData)
	if bd.Surface == nil {
		t.Fatal("expected a surface")
	}
	want := graph.Surface{
		Paint: geom.Paint{Texture: "oak", Surface: "top", Pass: geom.PassCutout, Emissive: true},
		Color: 0xFF0000FF,
	}
	if *bd.Surface != want {
		t.Errorf("surface = %+v, want %+v", *bd.Surface, want)
	}
}

func TestPaintDefaultsColor(t *testing.T) {
	g := eval(t, `(defsolid "b" (box 1 1 1 :paint (paint :texture "pine")))`)
	if c := g.MustLookup("b").Data.(graph.BoxData).Surface.Color; c != geom.White {
		t.Errorf("color = %#x, want white", c)
	}
}

func TestDefaults(t *testing.T) {
	g := eval(t, `(defaults :segments 12 :paint (paint :texture "birch" :color 4278255360))`)
	if g.Defaults.Segments != 12 {
		t.Errorf("segments = %d, want 12", g.Defaults.Segments)
	}
	if g.Defaults.Paint.Texture != "birch" || g.Defaults.Color != 0xFF00FF00 {
		t.Errorf("defaults = %+v", g.Defaults)
	}
	if msg := evalFails(t, `(defaults :segments 2)`); !strings.Contains(msg, "at least 3") {
		t.Errorf("message = %q", msg)
	}
}

// ---------------------------------------------------------------------------
// Transforms and booleans
// ---------------------------------------------------------------------------

func TestTransforms(t *testing.T) {
	g := eval(t, `
(defsolid "post" (box 10 10 100))
(defsolid "moved" (translate (solid "post") 5 -5 0))
(defsolid "turned" (rotate (solid "moved") (vec3 0 0 90)))
`)
	post := g.MustLookup("post")
	moved := g.MustLookup("moved")
	turned := g.MustLookup("turned")

	td := moved.Data.(graph.TransformData)
	if td.Translation == nil || *td.Translation != (graph.Vec3{X: 5, Y: -5}) || td.Rotation != nil {
		t.Errorf("translate data = %+v", td)
	}
	if len(moved.Children) != 1 || moved.Children[0] != post.ID {
		t.Error("translate should wrap the post")
	}
	rd := turned.Data.(graph.TransformData)
	if rd.Rotation == nil || rd.Rotation.Z != 90 || rd.Translation != nil {
		t.Errorf("rotate data = %+v", rd)
	}

	// Only the outermost solid is unused.
	if len(g.Roots) != 1 || g.Roots[0] != turned.ID {
		t.Errorf("roots = %v", g.Roots)
	}
	if errs := graph.Validate(g); len(errs) != 0 {
		t.Errorf("validation: %v", errs)
	}
}

func TestBooleans(t *testing.T) {
	tests := []struct {
		fn   string
		want csg.Op
	}{
		{"union", csg.OpUnion},
		{"difference", csg.OpDifference},
		{"subtract", csg.OpDifference},
		{"intersect", csg.OpIntersect},
		{"intersection", csg.OpIntersect},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			g := eval(t, `
(defsolid "a" (box 10 10 10))
(defsolid "b" (cylinder 3 10))
(defsolid "c" (wedge 10 10 10))
(defsolid "r" (`+tt.fn+` (solid "a") (solid "b") (solid "c")))
`)
			r := g.MustLookup("r")
			if r.Kind != graph.NodeBoolean {
				t.Fatalf("kind = %s", r.Kind)
			}
			if op := r.Data.(graph.BooleanData).Op; op != tt.want {
				t.Errorf("op = %s, want %s", op, tt.want)
			}
			want := []graph.NodeID{g.MustLookup("a").ID, g.MustLookup("b").ID, g.MustLookup("c").ID}
			if len(r.Children) != 3 {
				t.Fatalf("children = %d", len(r.Children))
			}
			for i := range want {
				if r.Children[i] != want[i] {
					t.Errorf("operand %d out of order", i)
				}
			}
		})
	}
}

func TestBooleanRequiresOperand(t *testing.T) {
	if msg := evalFails(t, `(union)`); !strings.Contains(msg, "at least one solid") {
		t.Errorf("message = %q", msg)
	}
	if msg := evalFails(t, `(difference (box 1 1 1) 5)`); !strings.Contains(msg, "operand 1") {
		t.Errorf("message = %q", msg)
	}
}

func TestAnonymousFinalValueIsRoot(t *testing.T) {
	g := eval(t, `
(defsolid "plate" (box 100 50 10))
(difference (solid "plate") (translate (cylinder 4 10) 50 25 0))
`)
	if len(g.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(g.Roots))
	}
	root := g.Get(g.Roots[0])
	if root.Kind != graph.NodeBoolean || root.Name != "" {
		t.Errorf("root = %s %q", root.Kind, root.Name)
	}
	if root.Children[0] != g.MustLookup("plate").ID {
		t.Error("plate should be the first operand")
	}
}

func TestIdenticalFormsShareNode(t *testing.T) {
	g := eval(t, `(union (box 1 1 1) (box 1 1 1))`)
	root := g.Get(g.Roots[0])
	if root.Children[0] != root.Children[1] {
		t.Error("identical anonymous boxes should share an id")
	}
	if g.NodeCount() != 2 {
		t.Errorf("nodes = %d, want 2", g.NodeCount())
	}
}

// ---------------------------------------------------------------------------
// Names and roots
// ---------------------------------------------------------------------------

func TestSolidLookupError(t *testing.T) {
	if msg := evalFails(t, `(solid "ghost")`); !strings.Contains(msg, `no solid named "ghost"`) {
		t.Errorf("message = %q", msg)
	}
}

func TestDefsolidDuplicate(t *testing.T) {
	msg := evalFails(t, `
(defsolid "a" (box 1 1 1))
(defsolid "a" (box 2 2 2))
`)
	if !strings.Contains(msg, "already defined") {
		t.Errorf("message = %q", msg)
	}
}

func TestOutputDeclaresRoots(t *testing.T) {
	g := eval(t, `
(defsolid "a" (box 1 1 1))
(defsolid "b" (translate (solid "a") 5 0 0))
(defsolid "spare" (box 3 3 3))
(output (solid "a") (solid "b"))
`)
	if len(g.Roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(g.Roots))
	}
	if g.Roots[0] != g.MustLookup("a").ID || g.Roots[1] != g.MustLookup("b").ID {
		t.Error("roots should follow output order")
	}
	// spare is defined but not output.
	found := false
	for _, e := range graph.Validate(g) {
		if e.Severity == graph.SeverityWarning && strings.Contains(e.Message, `"spare"`) {
			found = true
		}
	}
	if !found {
		t.Error("expected orphan warning for spare")
	}
}

func TestGroup(t *testing.T) {
	g := eval(t, `
(defsolid "leg" (box 5 5 70))
(group "table"
  (box 100 60 3 :paint (paint :texture "walnut"))
  (solid "leg")
  (translate (solid "leg") 95 0 0))
`)
	table := g.MustLookup("table")
	if table.Kind != graph.NodeGroup {
		t.Fatalf("kind = %s", table.Kind)
	}
	if len(table.Children) != 3 {
		t.Fatalf("members = %d, want 3", len(table.Children))
	}
	if len(g.Roots) != 1 || g.Roots[0] != table.ID {
		t.Errorf("group should be the only root, got %v", g.Roots)
	}
	if errs := graph.Validate(g); len(errs) != 0 {
		t.Errorf("validation: %v", errs)
	}
}

func TestFullBracketExample(t *testing.T) {
	g := eval(t, `
;; a drilled bracket with a gusset
(defaults :segments 24)
(def wood (paint :texture "oak"))
(defsolid "plate" (box 100 50 10 :paint wood))
(defsolid "hole" (translate (cylinder :radius 4 :height 10) 50 25 0))
(defsolid "gusset" (translate (wedge 10 40 40 :paint wood) 45 0 10))
(defsolid "bracket"
  (union (difference (solid "plate") (solid "hole"))
         (solid "gusset")))
`)
	if errs := graph.Validate(g); len(errs) != 0 {
		t.Fatalf("validation: %v", errs)
	}
	if len(g.Roots) != 1 || g.NameOf(g.Roots[0]) != "bracket" {
		t.Fatalf("roots = %v", g.Roots)
	}
	if len(g.Primitives()) != 3 {
		t.Errorf("primitives = %d, want 3", len(g.Primitives()))
	}
	if len(g.Booleans()) != 2 {
		t.Errorf("booleans = %d, want 2", len(g.Booleans()))
	}
	if g.Defaults.Segments != 24 {
		t.Errorf("segments = %d", g.Defaults.Segments)
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := eval(t, `(defsolid "b" (box (* 2 5) (+ 1 1) (- 10 7)))`)
	if got := g.MustLookup("b").Data.(graph.BoxData).Size; got != (graph.Vec3{X: 10, Y: 2, Z: 3}) {
		t.Errorf("size = %+v", got)
	}
}
