// Package dogtvaudio implements the room-aware spatial audio engine.
//
// The engine derives acoustic behavior from a 3D room model and uses it to
// position, attenuate, and color synthetic and companion sound sources so
// they feel physically located in the listener's real environment, while
// reshaping frequency content for the canine hearing range.
//
// The design follows a strict derivation chain recomputed on every geometry
// update:
//
//	RoomGeometry → MaterialSet → acoustic Model → RoomImpulseResponse
//	             → ReverbParameters pushed to the external mixing graph
//
// Sources are independent entities managed by the spatial registry: their
// positions are informed by, but never owned by, the acoustic model, and
// geometry updates never invalidate them.
//
// Collaborating systems supply three things: a room.RoomGeometry snapshot
// whenever the space is rescanned, sound assets through an assets.Resolver,
// and the actual audio-rendering graph through the graph.Graph interface.
// The render package offers a software reference graph for development and
// tests.
//
// The Engine is instantiated once per session and threaded explicitly
// through callers; there are no package-level singletons.
package dogtvaudio
