// Package csg computes boolean set operations (union, intersection,
// difference) on polygon meshes with BSP trees.
//
// An operation wraps each input polygon in a Fragment that carries
// per-operation bookkeeping: an inversion flag, one line ID per edge, the
// ID of the original polygon it was cut from, and its own ID. Two BSP
// trees are built, clipped against each other in a fixed order, merged,
// and the surviving fragments of each original polygon are rejoined along
// the edges their splits created. The bookkeeping is dropped when the
// result polygons are materialized; nothing is shared between operations.
package csg
