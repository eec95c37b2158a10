package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/segmentio/encoding/json"
)

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // geometric primitive (box, wedge, cylinder)
	NodeTransform                 // spatial transformation (translate, rotate)
	NodeBoolean                   // union, difference or intersection of children
	NodeGroup                     // named collection rendered as separate parts
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// NodeID is a content-addressed identifier for graph nodes: the SHA-256 of
// the node's kind, name, payload and children.
type NodeID [32]byte

// NewNodeID derives the ID of a node from its content. Two nodes with the
// same content get the same ID.
func NewNodeID(kind NodeKind, name string, data NodeData, children []NodeID) NodeID {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%T\x00", kind, name, data)
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			// Payloads are plain structs of numbers and strings.
			panic(fmt.Sprintf("graph: encode node data: %v", err))
		}
		h.Write(b)
	}
	for _, c := range children {
		h.Write(c[:])
	}
	var id NodeID
	copy(id[:], h.Sum(nil))
	return id
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// String returns the full hex encoding.
func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string {
	return id.String()[:8]
}

// MarshalText encodes the ID as hex so it can key JSON maps.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex ID.
func (id *NodeID) UnmarshalText(b []byte) error {
	if hex.DecodedLen(len(b)) != len(id) {
		return fmt.Errorf("graph: node id %q has wrong length", b)
	}
	_, err := hex.Decode(id[:], b)
	return err
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Form     string   `json:"form,omitempty"` // DSL form that created the node
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NewNode builds a node and derives its ID.
func NewNode(kind NodeKind, name, form string, data NodeData, children ...NodeID) *Node {
	return &Node{
		ID:       NewNodeID(kind, name, data, children),
		Kind:     kind,
		Name:     name,
		Form:     form,
		Children: children,
		Data:     data,
	}
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
