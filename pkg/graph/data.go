package graph

import (
	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/geom"
)

// Vec3 is a plain 3-vector used in node payloads.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ---------------------------------------------------------------------------
// Surface
// ---------------------------------------------------------------------------

// Surface is the paint and vertex color applied to a primitive's faces.
// A primitive without one uses the graph defaults.
type Surface struct {
	Paint geom.Paint `json:"paint"`
	Color uint32     `json:"color"` // packed ARGB
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // rectangular solid
	PrimWedge                         // right triangular prism
	PrimCylinder                      // faceted cylinder
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimWedge:
		return "wedge"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// Primitive is implemented by the payloads of primitive nodes.
type Primitive interface {
	NodeData
	Prim() PrimitiveKind
	Finish() *Surface
}

// BoxData is a box with its minimum corner at the origin.
type BoxData struct {
	Size    Vec3     `json:"size"`
	Surface *Surface `json:"surface,omitempty"`
}

func (BoxData) nodeData() {}
func (BoxData) Prim() PrimitiveKind { return PrimBox }
func (d BoxData) Finish() *Surface { return d.Surface }

// WedgeData is a wedge filling the box of the given size, full height at
// y=0 and sloping to nothing at y=Size.Y.
type WedgeData struct {
	Size    Vec3     `json:"size"`
	Surface *Surface `json:"surface,omitempty"`
}

func (WedgeData) nodeData() {}
func (WedgeData) Prim() PrimitiveKind { return PrimWedge }
func (d WedgeData) Finish() *Surface { return d.Surface }

// CylinderData is a faceted cylinder standing on the XY plane. Zero
// Segments means the graph default.
type CylinderData struct {
	Height   float64  `json:"height"`
	Radius   float64  `json:"radius"`
	Segments int      `json:"segments,omitempty"`
	Surface  *Surface `json:"surface,omitempty"`
}

func (CylinderData) nodeData() {}
func (CylinderData) Prim() PrimitiveKind { return PrimCylinder }
func (d CylinderData) Finish() *Surface { return d.Surface }

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Rotation is applied before translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanData combines the node's children left to right with Op:
// ((c0 op c1) op c2) ...
type BooleanData struct {
	Op csg.Op `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping. Each child of a group is
// rendered as its own part.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
