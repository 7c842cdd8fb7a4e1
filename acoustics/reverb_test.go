package acoustics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/denster32/dogtv-audio/room"
)

func TestProjectReverbParameters(t *testing.T) {
	geo := livingRoom(1)
	model := ComputeModel(geo, ClassifyMaterials(geo))
	ir := SynthesizeImpulseResponse(geo, model, room.Vec3{X: 5, Y: 2.5, Z: 0.3})

	params := ProjectReverbParameters(model, ir.LateReverb)

	assert.InDelta(t, model.CriticalDistance/SpeedOfSound, params.PreDelay, 1e-12)
	assert.InDelta(t, 30.0/150.0, params.RoomSize, 1e-9)
	assert.InDelta(t, 0.96, params.DecayTime, 1e-9)
	assert.InDelta(t, 0.1, params.Dampening, 1e-9)
	assert.InDelta(t, 0.12, params.Diffusion, 1e-9)
}

// TestProjectReverbParametersClamps drives the projection with out-of-range
// inputs and verifies every field lands inside processor limits.
func TestProjectReverbParametersClamps(t *testing.T) {
	model := Model{
		RoomVolume:       100000, // cathedral
		CriticalDistance: 500,
	}
	late := LateReverb{
		DecayTime: 60,
		Dampening: 3,
		Diffusion: -0.5,
	}

	params := ProjectReverbParameters(model, late)

	assert.Equal(t, 0.1, params.PreDelay)
	assert.Equal(t, 1.0, params.RoomSize)
	assert.Equal(t, 10.0, params.DecayTime)
	assert.Equal(t, 1.0, params.Dampening)
	assert.Equal(t, 0.0, params.Diffusion)
}

func TestProjectReverbParametersDecayFloor(t *testing.T) {
	params := ProjectReverbParameters(Model{}, LateReverb{DecayTime: 0.001})
	assert.Equal(t, 0.1, params.DecayTime)
}
