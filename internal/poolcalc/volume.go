// Package poolcalc holds the pure domain math of the service: the pool
// volume calculator and the chemical reading classifier.  Nothing in this
// package touches the database or the network.
package poolcalc

import "math"

// Shape enumerates the supported pool geometries.
type Shape string

const (
	ShapeQuadrilateral Shape = "quadrilateral"
	ShapeCircular      Shape = "circular"
	ShapeOval          Shape = "oval"
)

// Volume mode values.  In auto mode the stored volume is always derived from
// geometry; in manual mode the user-entered volume is authoritative and the
// calculator must not touch it.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// Shape factors applied to length x width x depth (circular reads length as
// the diameter and ignores width).
const (
	circularFactor = 0.785
	ovalFactor     = 0.89
)

// Volume computes a pool's liquid volume in liters from its geometry.
// All dimensions are meters.  The result is rounded to the nearest multiple
// of 10 liters.  ok is false when the inputs are insufficient: a missing or
// non-positive depth, a missing required side, an unknown shape, or a rounded
// result that is not positive.
func Volume(shape Shape, lengthM, widthM, avgDepthM float64) (liters int, ok bool) {
	if avgDepthM <= 0 {
		return 0, false
	}
	var cubicMeters float64
	switch shape {
	case ShapeQuadrilateral:
		if lengthM <= 0 || widthM <= 0 {
			return 0, false
		}
		cubicMeters = lengthM * widthM * avgDepthM
	case ShapeCircular:
		// length is read as the diameter; width is unused
		if lengthM <= 0 {
			return 0, false
		}
		cubicMeters = lengthM * lengthM * avgDepthM * circularFactor
	case ShapeOval:
		if lengthM <= 0 || widthM <= 0 {
			return 0, false
		}
		cubicMeters = lengthM * widthM * avgDepthM * ovalFactor
	default:
		return 0, false
	}
	liters = int(math.Round(cubicMeters*1000/10)) * 10
	if liters <= 0 {
		return 0, false
	}
	return liters, true
}
