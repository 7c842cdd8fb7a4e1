package dogtvaudio

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/graph"
	"github.com/denster32/dogtv-audio/room"
	"github.com/denster32/dogtv-audio/spatial"
)

// stubGraph is a recording graph backend for engine-level tests.
type stubGraph struct {
	mu        sync.Mutex
	nextID    int
	reverbs   []acoustics.ReverbParameters
	scheduled []func()
	started   bool
	stopped   bool
}

type stubNode struct{ id int }

func (g *stubGraph) Attach(kind graph.NodeKind) (graph.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	return &stubNode{id: g.nextID}, nil
}

func (g *stubGraph) Connect(from, to graph.Node, format assets.Format) error { return nil }
func (g *stubGraph) Detach(n graph.Node) error                               { return nil }
func (g *stubGraph) SetGain(n graph.Node, gain float64) error                { return nil }
func (g *stubGraph) SetPosition(n graph.Node, pos room.Vec3) error           { return nil }
func (g *stubGraph) SetEqualizer(n graph.Node, bands []caneq.Band) error     { return nil }

func (g *stubGraph) SetReverb(n graph.Node, params acoustics.ReverbParameters) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverbs = append(g.reverbs, params)
	return nil
}

func (g *stubGraph) ScheduleBuffer(n graph.Node, buf *assets.Buffer, completion func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scheduled = append(g.scheduled, completion)
	return nil
}

func (g *stubGraph) Start() error { g.started = true; return nil }
func (g *stubGraph) Stop() error  { g.stopped = true; return nil }

func (g *stubGraph) lastReverb() acoustics.ReverbParameters {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reverbs[len(g.reverbs)-1]
}

func engineResolver() *assets.MemoryResolver {
	r := assets.NewMemoryResolver()
	format := assets.Format{SampleRate: 48000, Channels: 1}
	samples := make([]float32, 480)
	r.Register("chime", format, samples)
	r.Register("companion/bark", format, samples)
	r.Register("ambient/night/crickets", format, samples)
	r.Register("ambient/night/wind", format, samples)
	return r
}

// wallGeometry builds a single-wall room with the given span; a 10x5x0.6
// wall yields a 30 m³ space with 50 m² of surface.
func wallGeometry(version uint64, span room.Vec3) room.RoomGeometry {
	return room.RoomGeometry{
		Version: version,
		Walls: []room.Mesh{{Vertices: []room.Vec3{
			{},
			{X: span.X},
			{Y: span.Y},
			span,
		}}},
	}
}

func newTestEngine(t *testing.T) (*Engine, *stubGraph) {
	t.Helper()
	g := &stubGraph{}
	e, err := NewEngine(g, engineResolver(), nil)
	require.NoError(t, err)
	return e, g
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, engineResolver(), nil)
	assert.Error(t, err)

	_, err = NewEngine(&stubGraph{}, nil, nil)
	assert.Error(t, err)
}

func TestLifecycleStates(t *testing.T) {
	e, g := newTestEngine(t)
	assert.Equal(t, StateUninitialized, e.State())

	// Source operations are rejected before configuration.
	_, err := e.CreateVirtualSource(room.Vec3{}, "chime", false)
	assert.True(t, errors.Is(err, ErrEngineNotConfigured))

	require.NoError(t, e.Configure())
	assert.Equal(t, StateIdle, e.State())
	assert.True(t, g.started)

	assert.True(t, errors.Is(e.Configure(), ErrEngineAlreadyConfigured))

	id, err := e.CreateVirtualSource(room.Vec3{X: 1}, "chime", false)
	require.NoError(t, err)
	assert.Equal(t, StateActive, e.State())
	assert.Equal(t, 1, e.SourceCount())

	// Stopping the last source settles back to Idle.
	require.NoError(t, e.Stop(id))
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 0, e.SourceCount())

	require.NoError(t, e.Shutdown())
	assert.Equal(t, StateTerminated, e.State())
	assert.True(t, g.stopped)
}

func TestTerminatedRejectsEverything(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Configure())
	require.NoError(t, e.Shutdown())

	assert.True(t, errors.Is(e.Configure(), ErrEngineTerminated))
	assert.True(t, errors.Is(e.UpdateRoomGeometry(room.RoomGeometry{}), ErrEngineTerminated))
	assert.True(t, errors.Is(e.UpdateListener(room.Vec3{}, room.Vec3{}), ErrEngineTerminated))
	assert.True(t, errors.Is(e.Play(uuid.New()), ErrEngineTerminated))
	assert.True(t, errors.Is(e.StopAll(), ErrEngineTerminated))
	assert.True(t, errors.Is(e.Shutdown(), ErrEngineTerminated))

	_, err := e.CreateVirtualSource(room.Vec3{}, "chime", false)
	assert.True(t, errors.Is(err, ErrEngineTerminated))
}

func TestUpdateRoomGeometry(t *testing.T) {
	e, g := newTestEngine(t)
	require.NoError(t, e.Configure())

	var modelVersions []uint64
	e.SetModelUpdatedCallback(func(m acoustics.Model) {
		modelVersions = append(modelVersions, m.GeometryVersion)
	})

	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(1, room.Vec3{X: 10, Y: 5, Z: 0.6})))

	model := e.CurrentAcousticModel()
	assert.Equal(t, uint64(1), model.GeometryVersion)
	assert.InDelta(t, 0.96, model.ReverbTime, 1e-9)

	params := e.CurrentReverbParameters()
	assert.InDelta(t, 0.96, params.DecayTime, 1e-9)
	assert.InDelta(t, 30.0/150.0, params.RoomSize, 1e-9)
	assert.Equal(t, params, g.lastReverb())

	ir := e.CurrentImpulseResponse()
	assert.Len(t, ir.EarlyReflections, 1)

	assert.Equal(t, []uint64{1}, modelVersions)
}

// TestUpdateRoomGeometryReplacesModel verifies a rescan replaces the model
// wholesale: every derived quantity reflects only the new geometry.
func TestUpdateRoomGeometryReplacesModel(t *testing.T) {
	e, g := newTestEngine(t)
	require.NoError(t, e.Configure())

	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(1, room.Vec3{X: 10, Y: 5, Z: 0.6})))
	first := e.CurrentAcousticModel()

	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(2, room.Vec3{X: 4, Y: 2.5, Z: 0.4})))
	second := e.CurrentAcousticModel()

	assert.Equal(t, uint64(2), second.GeometryVersion)
	assert.InDelta(t, 4.0, second.RoomVolume, 1e-9)
	assert.InDelta(t, 10.0, second.SurfaceArea, 1e-9)
	assert.NotEqual(t, first.ReverbTime, second.ReverbTime)

	// The small room's reverb reached the graph.
	assert.InDelta(t, 4.0/150.0, g.lastReverb().RoomSize, 1e-9)
}

// TestGeometryBeforeConfigure verifies geometry may arrive while
// uninitialized; Configure then pushes the pending reverb parameters.
func TestGeometryBeforeConfigure(t *testing.T) {
	e, g := newTestEngine(t)

	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(1, room.Vec3{X: 10, Y: 5, Z: 0.6})))
	assert.Equal(t, StateUninitialized, e.State())
	assert.InDelta(t, 0.96, e.CurrentAcousticModel().ReverbTime, 1e-9)
	assert.Empty(t, g.reverbs)

	require.NoError(t, e.Configure())
	require.NotEmpty(t, g.reverbs)
	assert.InDelta(t, 0.96, g.lastReverb().DecayTime, 1e-9)
}

// TestGeometryKeepsSourcesAlive verifies a rescan never invalidates live
// sources.
func TestGeometryKeepsSourcesAlive(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Configure())

	id, err := e.CreateVirtualSource(room.Vec3{X: 2}, "chime", false)
	require.NoError(t, err)

	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(1, room.Vec3{X: 10, Y: 5, Z: 0.6})))

	src, err := e.Source(id)
	require.NoError(t, err)
	assert.Equal(t, room.Vec3{X: 2}, src.Position())
	assert.Equal(t, StateActive, e.State())
}

func TestUpdateListenerResynthesizesImpulse(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Configure())
	require.NoError(t, e.UpdateRoomGeometry(wallGeometry(1, room.Vec3{X: 10, Y: 5, Z: 0.6})))

	before := e.CurrentImpulseResponse().EarlyReflections[0].Delay

	require.NoError(t, e.UpdateListener(room.Vec3{X: 5, Y: 2.5, Z: 0.3}, room.Vec3{Z: 1}))

	after := e.CurrentImpulseResponse().EarlyReflections[0].Delay
	assert.NotEqual(t, before, after, "reflection timing follows the listener")
}

func TestPlayAndCompletion(t *testing.T) {
	e, g := newTestEngine(t)

	var events []bool
	e.SetSourceStateCallback(func(id uuid.UUID, playing bool) {
		events = append(events, playing)
	})

	require.NoError(t, e.Configure())

	id, err := e.CreateVirtualSource(room.Vec3{}, "chime", false)
	require.NoError(t, err)

	require.NoError(t, e.Play(id))
	require.Len(t, g.scheduled, 1)

	src, err := e.Source(id)
	require.NoError(t, err)
	assert.True(t, src.IsPlaying())

	g.scheduled[0]()
	assert.False(t, src.IsPlaying())
	assert.Equal(t, []bool{true, false}, events)
}

func TestCompanionAndAmbientSources(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Configure())

	companionID, err := e.CreateCompanionSource("rex", spatial.CategoryMedium, room.Vec3{X: 1}, caneq.SoundTypeBark)
	require.NoError(t, err)

	src, err := e.Source(companionID)
	require.NoError(t, err)
	assert.Equal(t, 0.6, src.Volume())

	ambientID, err := e.CreateAmbientSource(spatial.EnvNight, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, e.SourceCount())

	require.NoError(t, e.StopAll())
	assert.Equal(t, 0, e.SourceCount())
	assert.Equal(t, StateIdle, e.State())

	_, err = e.Source(ambientID)
	assert.True(t, errors.Is(err, spatial.ErrUnknownSource))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 48000, cfg.Format.SampleRate)
	assert.Equal(t, 2, cfg.Format.Channels)
}

func TestEngineStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "unknown", EngineState(9).String())
}
