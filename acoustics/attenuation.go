package acoustics

import "math"

// MinAttenuationDistance is the hard floor applied to source-to-listener
// distance before computing gain. It prevents unbounded gain for sources
// sitting on top of the listener.
const MinAttenuationDistance = 0.5

// DistanceGain maps a source-to-listener distance to a gain multiplier
// using inverse-square attenuation. The result is applied multiplicatively
// against a source's authored volume. gain(0.5) == 4.0 exactly, and the
// function is non-increasing for d ≥ MinAttenuationDistance.
func DistanceGain(distance float64) float64 {
	effective := math.Max(distance, MinAttenuationDistance)
	return 1 / (effective * effective)
}
