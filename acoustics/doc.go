// Package acoustics derives acoustic behavior from a room geometry snapshot.
//
// The derivation chain is strict and recomputed top to bottom on every
// geometry update:
//
//	RoomGeometry → MaterialSet → Model → RoomImpulseResponse → ReverbParameters
//
// Every stage is a pure function over immutable inputs. None of them can
// fail: degenerate geometry (zero surfaces, near-zero volume or absorption)
// degrades gracefully through floors and clamps instead of returning errors.
//
// The scalar model follows classical statistical room acoustics: the Sabine
// relation for RT60, the Schroeder frequency for the modal/statistical
// transition, and the critical distance at which direct and reverberant
// energy are equal. The reflection amplitude and absorption floor use the
// simplified relations the production tuning was done against, so they are
// kept exactly rather than replaced with textbook formulas.
package acoustics
