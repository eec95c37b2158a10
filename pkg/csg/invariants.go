package csg

import (
	"fmt"

	"github.com/chazu/kerf/pkg/geom"
)

// assertValidInput panics when a polygon entering an operation breaks the
// producer contract. Compiled out unless built with -tags=csgdebug.
func assertValidInput(p *geom.Polygon) {
	if !checkInvariants {
		return
	}
	if err := p.Validate(); err != nil {
		panic(fmt.Sprintf("csg: invalid input polygon: %v", err))
	}
}

// assertLineIDs panics when a fragment carries an uninitialized line ID.
func assertLineIDs(f *Fragment) {
	if !checkInvariants {
		return
	}
	if len(f.lineIDs) != f.poly.Len() {
		panic(fmt.Sprintf("csg: fragment %d has %d line ids for %d edges", f.id, len(f.lineIDs), f.poly.Len()))
	}
	for i, id := range f.lineIDs {
		if id == 0 {
			panic(fmt.Sprintf("csg: fragment %d edge %d has no line id", f.id, i))
		}
	}
}
