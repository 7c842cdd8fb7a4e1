package spatial

import (
	"github.com/google/uuid"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/caneq"
)

// SourceParams is the precomputed per-source state the real-time renderer
// needs: a gain scalar and an equalizer band table, nothing that requires
// allocation or locking to apply.
type SourceParams struct {
	ID   uuid.UUID
	Kind SourceKind
	Gain float64
	EQ   []caneq.Band
}

// ParamSnapshot is an immutable view of every parameter the rendering side
// consumes. The registry publishes a fresh snapshot after each mutation via
// an atomic pointer swap; the renderer reads the current pointer once per
// buffer period and never takes a lock.
type ParamSnapshot struct {
	Version  uint64
	Listener Listener
	Reverb   acoustics.ReverbParameters
	Sources  []SourceParams
}

// Snapshot returns the most recently published parameter snapshot, or nil
// if nothing has been published yet. The returned value must be treated as
// read-only.
func (r *Registry) Snapshot() *ParamSnapshot {
	return r.snapshot.Load()
}

// publishSnapshot rebuilds and swaps in the parameter snapshot.
// Callers must hold r.mu for writing.
func (r *Registry) publishSnapshot() {
	r.snapVersion++
	snap := &ParamSnapshot{
		Version:  r.snapVersion,
		Listener: r.listener,
		Reverb:   r.reverb,
		Sources:  make([]SourceParams, 0, len(r.sources)),
	}

	for _, src := range r.sources {
		p := SourceParams{
			ID:   src.id,
			Kind: src.kind,
			Gain: r.effectiveGain(src),
		}
		if src.kind == KindCompanion {
			p.EQ = caneq.Overrides(src.soundType)
		}
		snap.Sources = append(snap.Sources, p)
	}

	r.snapshot.Store(snap)
}
