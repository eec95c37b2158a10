// Package geom defines the immutable vertex and polygon types that flow
// into and out of the CSG engine. Polygons carry opaque paint metadata
// that geometry operations copy through untouched.
package geom
