package geom

import "math"

// Epsilon is the one tolerance used for plane-side, coincidence,
// collinearity and convexity tests. Split and rejoin must agree on it or
// fragments stop lining up.
const Epsilon = 1e-5

// NearZero reports whether |x| is within Epsilon.
func NearZero(x float64) bool {
	return math.Abs(x) <= Epsilon
}
