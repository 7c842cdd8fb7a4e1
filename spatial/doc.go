// Package spatial owns the lifecycle of the engine's audio sources and
// their attachment into the external audio graph.
//
// Three source kinds exist. Virtual sources play a single positioned sound.
// Companion sources do the same for a companion's vocalizations, with a
// companion-specific equalizer stage inserted ahead of the shared
// equalizer. Ambient sources play a set of layered handles in parallel
// through a dedicated sub-mixer and are diffuse: they carry no position
// attenuation.
//
// The Registry is the one piece of mutable shared state in the engine. It
// assumes single-goroutine ownership by session logic, guarded internally
// by a mutex; only precomputed parameter snapshots (see ParamSnapshot) flow
// to the real-time rendering side, via an atomic pointer swap rather than
// locks.
//
// Looping playback is an explicit scheduled task: a persistent loop record
// with an atomic cancellation flag that each buffer-completion checks
// before re-arming the next buffer through the graph's own scheduling
// primitive. Stopping a loop is a flag flip, idempotent, and safe against
// an in-flight completion for the same source.
package spatial
