//go:build csgdebug

package csg

const checkInvariants = true
