package acoustics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denster32/dogtv-audio/room"
)

func TestSynthesizeImpulseResponse(t *testing.T) {
	geo := livingRoom(3)
	model := ComputeModel(geo, ClassifyMaterials(geo))
	listener := room.Vec3{X: 5, Y: 1, Z: 5}

	ir := SynthesizeImpulseResponse(geo, model, listener)

	assert.Equal(t, ImpulseSampleRate, ir.SampleRate)
	assert.Equal(t, model.ReverbTime, ir.Duration)
	require.Len(t, ir.EarlyReflections, len(geo.Walls))

	center := geo.Walls[0].Center()
	distance := center.Distance(listener)

	refl := ir.EarlyReflections[0]
	assert.InDelta(t, distance/SpeedOfSound, refl.Delay, 1e-12)
	assert.InDelta(t, 1/(1+0.1*distance), refl.Amplitude, 1e-12)
	assert.InDelta(t, 1.0, refl.Direction.Length(), 1e-9, "direction should be unit length")

	// The direction points away from the listener, toward the wall.
	toWall := center.Sub(listener).Normalized()
	assert.InDelta(t, 1.0, refl.Direction.Dot(toWall), 1e-9)
}

func TestSynthesizeImpulseResponseLateReverb(t *testing.T) {
	geo := livingRoom(4)
	model := ComputeModel(geo, ClassifyMaterials(geo))

	ir := SynthesizeImpulseResponse(geo, model, room.Vec3{})
	late := ir.LateReverb

	assert.Equal(t, model.ReverbTime, late.DecayTime)
	assert.InDelta(t, 30.0/50.0, late.Density, 1e-9)
	assert.InDelta(t, model.Absorption*1.2, late.Diffusion, 1e-9)
	assert.Equal(t, model.Absorption, late.Dampening)
}

// TestSynthesizeImpulseResponseNoWalls verifies that a wall-free geometry is
// not an error: the early set is empty but the tail descriptor stays valid.
func TestSynthesizeImpulseResponseNoWalls(t *testing.T) {
	geo := room.RoomGeometry{Version: 9}
	model := ComputeModel(geo, ClassifyMaterials(geo))

	ir := SynthesizeImpulseResponse(geo, model, room.Vec3{X: 1})

	assert.Empty(t, ir.EarlyReflections)
	assert.Greater(t, ir.LateReverb.DecayTime, 0.0)
	assert.False(t, math.IsNaN(ir.LateReverb.Density))
}

// TestDensitySaturates verifies large rooms clamp echo density at 1.0.
func TestDensitySaturates(t *testing.T) {
	geo := room.RoomGeometry{
		Version: 5,
		Walls: []room.Mesh{
			wallMesh(room.Vec3{}, room.Vec3{X: 20, Y: 10, Z: 8}),
		},
	}
	model := ComputeModel(geo, ClassifyMaterials(geo))
	ir := SynthesizeImpulseResponse(geo, model, room.Vec3{})

	assert.Equal(t, 1.0, ir.LateReverb.Density)
}
