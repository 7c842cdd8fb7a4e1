package acoustics

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/denster32/dogtv-audio/room"
)

// SpeedOfSound is the propagation speed used for reflection timing, in m/s.
const SpeedOfSound = 343.0

// ImpulseSampleRate is the sample rate the impulse response is described
// at. 48 kHz covers the full equalization band of the target listener.
const ImpulseSampleRate = 48000

// EarlyReflection is one discrete, delayed, attenuated copy of a sound
// arriving from an identifiable room surface.
type EarlyReflection struct {
	Delay     float64   // seconds
	Amplitude float64   // (0,1]
	Direction room.Vec3 // unit vector from listener toward the surface
}

// LateReverb statistically describes the diffuse decay tail that follows
// the early reflections.
type LateReverb struct {
	DecayTime float64 // seconds, equals the model RT60
	Density   float64 // [0,1]
	Diffusion float64
	Dampening float64
}

// RoomImpulseResponse is the full reflection description consumed by the
// external convolution/reverb stage.
type RoomImpulseResponse struct {
	SampleRate       int
	Duration         float64 // seconds
	EarlyReflections []EarlyReflection
	LateReverb       LateReverb
}

// SynthesizeImpulseResponse builds an early-reflection set and a late-reverb
// descriptor for the given geometry, model, and listener position.
//
// Each wall contributes one reflection: delay is the wall-center distance
// over the speed of sound, amplitude follows the 1/(1+0.1d) relation the
// system was tuned with (monotonic and bounded in (0,1], not physically
// exact), and direction points from the listener to the wall center.
//
// A geometry with zero walls produces an empty early-reflection list and a
// late-reverb descriptor computed from the still-valid scalar model; it is
// never an error.
func SynthesizeImpulseResponse(geo room.RoomGeometry, model Model, listener room.Vec3) RoomImpulseResponse {
	early := make([]EarlyReflection, 0, len(geo.Walls))
	for _, wall := range geo.Walls {
		center := wall.Center()
		distance := center.Distance(listener)

		early = append(early, EarlyReflection{
			Delay:     distance / SpeedOfSound,
			Amplitude: 1 / (1 + distance*0.1),
			Direction: center.Sub(listener).Normalized(),
		})
	}

	ir := RoomImpulseResponse{
		SampleRate:       ImpulseSampleRate,
		Duration:         model.ReverbTime,
		EarlyReflections: early,
		LateReverb: LateReverb{
			DecayTime: model.ReverbTime,
			Density:   math.Min(1, model.RoomVolume/50),
			Diffusion: model.Absorption * 1.2,
			Dampening: model.Absorption,
		},
	}

	logrus.WithFields(logrus.Fields{
		"function":          "SynthesizeImpulseResponse",
		"geometry_version":  geo.Version,
		"early_reflections": len(ir.EarlyReflections),
		"decay_time":        ir.LateReverb.DecayTime,
		"density":           ir.LateReverb.Density,
	}).Debug("Synthesized room impulse response")

	return ir
}
