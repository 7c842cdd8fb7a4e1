package spatial

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/graph"
	"github.com/denster32/dogtv-audio/room"
)

// SourceKind identifies the three source lifecycles the registry manages.
type SourceKind int

const (
	// KindVirtual is a positioned synthetic sound source.
	KindVirtual SourceKind = iota
	// KindCompanion is a positioned source voicing a companion.
	KindCompanion
	// KindAmbient is a diffuse, layered environmental source.
	KindAmbient
)

// String returns the string representation of the source kind.
func (k SourceKind) String() string {
	switch k {
	case KindVirtual:
		return "virtual"
	case KindCompanion:
		return "companion"
	case KindAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// Listener is the shared listener state against which all positioned
// sources are attenuated.
type Listener struct {
	Position    room.Vec3
	Orientation room.Vec3
}

// loopTask is the persistent record driving looping playback. A completion
// callback re-arms the next buffer only while the flag is clear; stopping a
// loop flips the flag and never races an in-flight completion.
type loopTask struct {
	sourceID  uuid.UUID
	cancelled atomic.Bool
}

func (t *loopTask) cancel() {
	t.cancelled.Store(true)
}

// ambientLayer is one parallel handle of an ambient source.
type ambientLayer struct {
	asset  string
	level  float64
	node   graph.Node
	buffer *assets.Buffer
}

// Source is one live audio source. Identity is stable from creation until
// explicit stop-and-removal; geometry updates never invalidate a source.
type Source struct {
	id   uuid.UUID
	kind SourceKind

	mu       sync.RWMutex
	position room.Vec3
	playing  bool
	looping  bool
	volume   float64
	loop     *loopTask

	// Graph wiring. node and spatializer exist for virtual and companion
	// sources; eqStage only for companion; subMixer and layers only for
	// ambient.
	node        graph.Node
	spatializer graph.Node
	eqStage     graph.Node
	subMixer    graph.Node
	layers      []ambientLayer
	buffer      *assets.Buffer

	// Companion back-references: lookup only, no ownership.
	companionID string
	soundType   caneq.SoundType
}

// ID returns the stable source identifier.
func (s *Source) ID() uuid.UUID { return s.id }

// Kind returns the source kind.
func (s *Source) Kind() SourceKind { return s.kind }

// Position returns the source position in room coordinates.
func (s *Source) Position() room.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// IsPlaying reports whether the source is currently playing.
func (s *Source) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

// IsLooping reports whether the source re-schedules itself on completion.
func (s *Source) IsLooping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.looping
}

// Volume returns the source's authored volume before distance attenuation.
func (s *Source) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// CompanionID returns the owning companion's identifier for companion
// sources, and "" otherwise.
func (s *Source) CompanionID() string { return s.companionID }

// SoundType returns the companion sound classification.
func (s *Source) SoundType() caneq.SoundType { return s.soundType }

func (s *Source) setPosition(pos room.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = pos
}

func (s *Source) setPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing
}

// tryArmLoop installs a fresh loop task and marks the source playing, but
// only if it is not playing already. The check and the arm happen under one
// lock so concurrent play calls cannot both schedule buffers.
func (s *Source) tryArmLoop() (*loopTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return nil, false
	}
	if s.loop != nil {
		s.loop.cancel()
	}
	s.loop = &loopTask{sourceID: s.id}
	s.playing = true
	return s.loop, true
}

// cancelLoop flips the cancellation flag and clears playback state.
// Safe to call repeatedly.
func (s *Source) cancelLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loop != nil {
		s.loop.cancel()
	}
	s.playing = false
}
