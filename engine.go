package dogtvaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/graph"
	"github.com/denster32/dogtv-audio/room"
	"github.com/denster32/dogtv-audio/spatial"
)

// EngineState tracks the engine's room/session lifecycle.
type EngineState int

const (
	// StateUninitialized is the state before Configure.
	StateUninitialized EngineState = iota
	// StateIdle means the graph is wired and no sources are live.
	StateIdle
	// StateActive means at least one source is live.
	StateActive
	// StateTerminated means Shutdown ran; no further operations are
	// permitted.
	StateTerminated
)

// String returns the string representation of the engine state.
func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config carries engine construction parameters.
type Config struct {
	// Format is the PCM format used for all graph connections.
	Format assets.Format
}

// DefaultConfig returns the standard configuration: 48 kHz stereo, matching
// the impulse-response sample rate and the top of the canine equalization
// band.
func DefaultConfig() *Config {
	return &Config{
		Format: assets.Format{SampleRate: acoustics.ImpulseSampleRate, Channels: 2},
	}
}

// Engine is the environmental audio orchestrator. It accepts geometry and
// listener updates, recomputes the acoustic model, regenerates reverb
// parameters, and republishes attenuation and equalization to all live
// sources through the spatial registry.
//
// An Engine is created once per session and passed explicitly to callers.
// All methods are safe for concurrent use from session logic; only
// precomputed parameter values reach the graph's real-time side.
type Engine struct {
	graphIface graph.Graph
	resolver   assets.Resolver
	format     assets.Format

	mu       sync.RWMutex
	state    EngineState
	registry *spatial.Registry

	geometry  room.RoomGeometry
	materials acoustics.MaterialSet
	model     acoustics.Model
	impulse   acoustics.RoomImpulseResponse
	reverb    acoustics.ReverbParameters
	hasModel  bool

	listenerPos    room.Vec3
	listenerOrient room.Vec3

	modelCallback       func(model acoustics.Model)
	sourceStateCallback func(id uuid.UUID, playing bool)
}

// NewEngine creates an engine bound to the given audio graph and asset
// resolver. config may be nil for DefaultConfig. The engine starts
// uninitialized; call Configure before creating sources.
func NewEngine(g graph.Graph, resolver assets.Resolver, config *Config) (*Engine, error) {
	if g == nil {
		return nil, errors.New("audio graph cannot be nil")
	}
	if resolver == nil {
		return nil, errors.New("asset resolver cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewEngine",
		"sample_rate": config.Format.SampleRate,
		"channels":    config.Format.Channels,
	}).Info("Creating environmental audio engine")

	return &Engine{
		graphIface: g,
		resolver:   resolver,
		format:     config.Format,
		state:      StateUninitialized,
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Configure wires the shared processing chain into the graph and starts
// rendering, transitioning Uninitialized → Idle.
func (e *Engine) Configure() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateTerminated:
		return ErrEngineTerminated
	case StateIdle, StateActive:
		return ErrEngineAlreadyConfigured
	}

	registry, err := spatial.NewRegistry(e.graphIface, e.resolver, e.format)
	if err != nil {
		return fmt.Errorf("wiring source registry: %w", err)
	}

	if err := e.graphIface.Start(); err != nil {
		registry.Close()
		return fmt.Errorf("starting audio graph: %w", err)
	}

	if e.sourceStateCallback != nil {
		registry.SetSourceStateCallback(e.sourceStateCallback)
	}

	e.registry = registry
	e.state = StateIdle

	// A geometry snapshot may have arrived before configuration; push its
	// reverb parameters now that the graph is live.
	if e.hasModel {
		if err := registry.ApplyReverb(e.reverb); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Configure",
				"error":    err.Error(),
			}).Warn("Failed to push pre-configure reverb parameters")
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Configure",
	}).Info("Environmental audio engine configured")

	return nil
}

// UpdateRoomGeometry accepts a fresh geometry snapshot and recomputes the
// full derivation chain: materials, scalar model, impulse response, and
// reverb parameters. The model is replaced wholesale; nothing survives from
// the previous snapshot. Legal in any non-terminal state; sources are never
// invalidated by geometry changes.
func (e *Engine) UpdateRoomGeometry(geo room.RoomGeometry) error {
	e.mu.Lock()

	if e.state == StateTerminated {
		e.mu.Unlock()
		return ErrEngineTerminated
	}

	e.geometry = geo
	e.materials = acoustics.ClassifyMaterials(geo)
	e.model = acoustics.ComputeModel(geo, e.materials)
	e.impulse = acoustics.SynthesizeImpulseResponse(geo, e.model, e.listenerPos)
	e.reverb = acoustics.ProjectReverbParameters(e.model, e.impulse.LateReverb)
	e.hasModel = true

	registry := e.registry
	model := e.model
	reverb := e.reverb
	cb := e.modelCallback
	e.mu.Unlock()

	if registry != nil {
		if err := registry.ApplyReverb(reverb); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":         "UpdateRoomGeometry",
				"geometry_version": geo.Version,
				"error":            err.Error(),
			}).Warn("Failed to push reverb parameters")
		}
	}

	if cb != nil {
		cb(model)
	}

	logrus.WithFields(logrus.Fields{
		"function":         "UpdateRoomGeometry",
		"geometry_version": geo.Version,
		"room_volume":      model.RoomVolume,
		"rt60":             model.ReverbTime,
	}).Info("Room geometry updated, acoustic model replaced")

	return nil
}

// UpdateListener replaces the shared listener state, re-synthesizes the
// listener-dependent early reflections, and triggers a re-attenuation pass
// over every live positioned source.
func (e *Engine) UpdateListener(position, orientation room.Vec3) error {
	e.mu.Lock()

	if e.state == StateTerminated {
		e.mu.Unlock()
		return ErrEngineTerminated
	}

	e.listenerPos = position
	e.listenerOrient = orientation
	if e.hasModel {
		e.impulse = acoustics.SynthesizeImpulseResponse(e.geometry, e.model, position)
	}
	registry := e.registry
	e.mu.Unlock()

	if registry != nil {
		registry.UpdateListener(position, orientation)
	}

	return nil
}

// checkSourceOps validates that source operations are currently legal and
// returns the registry to use.
func (e *Engine) checkSourceOps() (*spatial.Registry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch e.state {
	case StateTerminated:
		return nil, ErrEngineTerminated
	case StateUninitialized:
		return nil, ErrEngineNotConfigured
	}
	return e.registry, nil
}

// markActive transitions Idle → Active once a source exists.
func (e *Engine) markActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		e.state = StateActive
	}
}

// settleState transitions Active → Idle when the last source is gone.
func (e *Engine) settleState() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateActive && e.registry.Count() == 0 {
		e.state = StateIdle
	}
}

// CreateVirtualSource creates a positioned synthetic source for the named
// sound asset. Failure to resolve the asset or wire the graph fails this
// one source only.
func (e *Engine) CreateVirtualSource(position room.Vec3, soundName string, looping bool) (uuid.UUID, error) {
	registry, err := e.checkSourceOps()
	if err != nil {
		return uuid.Nil, err
	}

	id, err := registry.CreateVirtualSource(position, soundName, looping)
	if err != nil {
		return uuid.Nil, err
	}

	e.markActive()
	return id, nil
}

// CreateCompanionSource creates a positioned source voicing a companion,
// with the sound type's equalization overrides inserted ahead of the shared
// equalizer and the authored volume drawn from the companion category
// table.
func (e *Engine) CreateCompanionSource(companionID string, category spatial.CompanionCategory, position room.Vec3, soundType caneq.SoundType) (uuid.UUID, error) {
	registry, err := e.checkSourceOps()
	if err != nil {
		return uuid.Nil, err
	}

	id, err := registry.CreateCompanionSource(companionID, category, position, soundType)
	if err != nil {
		return uuid.Nil, err
	}

	e.markActive()
	return id, nil
}

// CreateAmbientSource creates a diffuse layered source for an environment
// preset. intensity sets the scene's sub-mixer level directly.
func (e *Engine) CreateAmbientSource(env spatial.EnvironmentType, intensity float64) (uuid.UUID, error) {
	registry, err := e.checkSourceOps()
	if err != nil {
		return uuid.Nil, err
	}

	id, err := registry.CreateAmbientSource(env, intensity)
	if err != nil {
		return uuid.Nil, err
	}

	e.markActive()
	return id, nil
}

// UpdateSourcePosition moves a live source. Unknown ids are a logged no-op.
func (e *Engine) UpdateSourcePosition(id uuid.UUID, position room.Vec3) error {
	registry, err := e.checkSourceOps()
	if err != nil {
		return err
	}

	registry.UpdateSourcePosition(id, position)
	return nil
}

// Play starts playback for a live source.
func (e *Engine) Play(id uuid.UUID) error {
	registry, err := e.checkSourceOps()
	if err != nil {
		return err
	}
	return registry.Play(id)
}

// Stop halts playback and removes a source. Idempotent: stopping twice has
// the same observable effect as stopping once.
func (e *Engine) Stop(id uuid.UUID) error {
	registry, err := e.checkSourceOps()
	if err != nil {
		return err
	}

	if err := registry.Stop(id); err != nil {
		return err
	}

	e.settleState()
	return nil
}

// StopAll stops and removes every live source, transitioning back to Idle.
func (e *Engine) StopAll() error {
	registry, err := e.checkSourceOps()
	if err != nil {
		return err
	}

	registry.StopAll()
	e.settleState()
	return nil
}

// Source returns the live source for id, or spatial.ErrUnknownSource.
func (e *Engine) Source(id uuid.UUID) (*spatial.Source, error) {
	registry, err := e.checkSourceOps()
	if err != nil {
		return nil, err
	}
	return registry.Source(id)
}

// SourceCount returns the number of live sources.
func (e *Engine) SourceCount() int {
	e.mu.RLock()
	registry := e.registry
	e.mu.RUnlock()

	if registry == nil {
		return 0
	}
	return registry.Count()
}

// Shutdown stops all sources, then tears down the graph, in that order, and
// transitions to Terminated. No further operations are permitted afterward.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.state == StateTerminated {
		e.mu.Unlock()
		return ErrEngineTerminated
	}
	registry := e.registry
	e.registry = nil
	e.state = StateTerminated
	e.mu.Unlock()

	if registry != nil {
		registry.Close()
		if err := e.graphIface.Stop(); err != nil {
			return fmt.Errorf("stopping audio graph: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Shutdown",
	}).Info("Environmental audio engine shut down")

	return nil
}

// CurrentAcousticModel returns the scalar model derived from the most
// recent geometry snapshot. The zero Model is returned before the first
// update.
func (e *Engine) CurrentAcousticModel() acoustics.Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// CurrentReverbParameters returns the reverb projection of the current
// acoustic model.
func (e *Engine) CurrentReverbParameters() acoustics.ReverbParameters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reverb
}

// CurrentImpulseResponse returns the impulse response synthesized for the
// current geometry and listener.
func (e *Engine) CurrentImpulseResponse() acoustics.RoomImpulseResponse {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.impulse
}

// SetModelUpdatedCallback registers a callback invoked after each geometry
// update with the freshly derived model. Pass nil to unregister.
func (e *Engine) SetModelUpdatedCallback(cb func(model acoustics.Model)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelCallback = cb
}

// SetSourceStateCallback registers a callback invoked when any source
// starts or stops playing. Pass nil to unregister.
func (e *Engine) SetSourceStateCallback(cb func(id uuid.UUID, playing bool)) {
	e.mu.Lock()
	e.sourceStateCallback = cb
	registry := e.registry
	e.mu.Unlock()

	if registry != nil {
		registry.SetSourceStateCallback(cb)
	}
}
