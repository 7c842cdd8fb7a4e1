package acoustics

import "math"

// Value ranges accepted by the external reverb processor. Anything outside
// is clamped at projection time so the processor never sees an illegal
// parameter, whatever the room looks like.
const (
	maxPreDelay        = 0.1 // seconds
	minDecayTime       = 0.1 // seconds
	maxDecayTime       = 10.0
	roomSizeFullVolume = 150.0 // m³ that maps to RoomSize 1.0
)

// ReverbParameters is the projection of the acoustic model and late-reverb
// descriptor into the value ranges the external reverb processor accepts.
type ReverbParameters struct {
	PreDelay  float64 // seconds, [0, 0.1]
	RoomSize  float64 // [0,1]
	DecayTime float64 // seconds, [0.1, 10]
	Dampening float64 // [0,1]
	Diffusion float64 // [0,1]
}

// ProjectReverbParameters maps a model and its late reverb onto processor
// ranges. PreDelay is the travel time to the critical distance: the radius
// at which the reverberant field takes over from direct sound.
func ProjectReverbParameters(model Model, late LateReverb) ReverbParameters {
	return ReverbParameters{
		PreDelay:  clamp(model.CriticalDistance/SpeedOfSound, 0, maxPreDelay),
		RoomSize:  clamp(model.RoomVolume/roomSizeFullVolume, 0, 1),
		DecayTime: clamp(late.DecayTime, minDecayTime, maxDecayTime),
		Dampening: clamp(late.Dampening, 0, 1),
		Diffusion: clamp(late.Diffusion, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
