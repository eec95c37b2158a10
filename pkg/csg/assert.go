//go:build !csgdebug

package csg

// checkInvariants enables the input-contract assertions. Build with
// -tags=csgdebug to turn them on.
const checkInvariants = false
