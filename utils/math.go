// Package utils holds small numeric conversion helpers shared across
// packages: scene JSON gives rotation and angular velocity in degrees,
// everything downstream of Assemble works in radians.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees, the inverse of DegToRad, used when
// reporting a resolved pose's rotation back in the scene file's units.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
