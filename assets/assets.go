// Package assets defines the sound-asset resolution contract between the
// spatial audio engine and the collaborator that owns the actual sound
// content. The engine never reads files: it asks a Resolver for a playable
// buffer by name and either gets one or gets ErrAssetNotFound.
//
// Two resolvers are provided. MemoryResolver serves pre-decoded PCM buffers
// registered by the host application. OpusResolver serves assets stored as
// Opus packet streams, decoding them to PCM on first resolution.
package assets

import (
	"errors"
	"sync"
)

// ErrAssetNotFound indicates the resolver does not know the requested name.
// Source creation fails for that one source; the caller decides whether to
// retry or skip.
var ErrAssetNotFound = errors.New("sound asset not found")

// Format describes the PCM layout of a buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer is a resolved, playable sound: interleaved float32 PCM.
type Buffer struct {
	Name    string
	Format  Format
	Samples []float32
}

// Duration returns the playback length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.Format.SampleRate <= 0 || b.Format.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Format.Channels
	return float64(frames) / float64(b.Format.SampleRate)
}

// Resolver maps asset names to playable buffers.
type Resolver interface {
	// Resolve returns the buffer registered under name, or
	// ErrAssetNotFound.
	Resolve(name string) (*Buffer, error)
}

// MemoryResolver is a thread-safe in-memory Resolver for pre-decoded PCM.
type MemoryResolver struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer
}

// NewMemoryResolver creates an empty in-memory resolver.
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{buffers: make(map[string]*Buffer)}
}

// Register stores a buffer under name, replacing any previous entry.
func (r *MemoryResolver) Register(name string, format Format, samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[name] = &Buffer{Name: name, Format: format, Samples: samples}
}

// Resolve returns the buffer registered under name.
func (r *MemoryResolver) Resolve(name string) (*Buffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buf, ok := r.buffers[name]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return buf, nil
}
