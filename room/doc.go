// Package room defines the geometry snapshot types consumed by the spatial
// audio engine.
//
// A RoomGeometry is produced by an external scene-scanning collaborator and
// handed to the engine whenever the physical space is (re)scanned. The engine
// holds it as a read-only snapshot: geometry is replaced wholesale on each
// update, never mutated incrementally. Each snapshot carries a Version stamp
// so downstream consumers can cache values derived from one snapshot.
package room
