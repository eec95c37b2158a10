package csg

// Allocator hands out the identifiers used during one boolean operation.
// Each operation owns its allocator; it is not safe for concurrent use.
type Allocator struct {
	nextLine     int
	nextBoundary int
	nextFragment uint64
}

// NewAllocator returns an allocator whose first IDs are 1, -1 and 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// LineID returns a fresh positive ID for the edges a splitting plane
// creates. Fragments on both sides of a split share it.
func (a *Allocator) LineID() int {
	a.nextLine++
	return a.nextLine
}

// BoundaryLineID returns a fresh negative ID for an edge of an original
// polygon. Boundary edges are never rejoin candidates.
func (a *Allocator) BoundaryLineID() int {
	a.nextBoundary--
	return a.nextBoundary
}

// FragmentID returns a fresh fragment ID. Zero is never returned.
func (a *Allocator) FragmentID() uint64 {
	a.nextFragment++
	return a.nextFragment
}
