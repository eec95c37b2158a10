// Package graph defines the design graph types for kerf.
// The design graph is an immutable DAG of primitives, transforms, boolean
// operations and groups that describes a solid model.
package graph
