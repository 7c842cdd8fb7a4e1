package spatial

import "errors"

// Sentinel errors for spatial source operations. Classify with errors.Is().
var (
	// ErrUnknownSource indicates an operation referenced a stale or
	// nonexistent source id. Mutating operations treat this as a logged
	// no-op; lookup accessors return it.
	ErrUnknownSource = errors.New("unknown source id")

	// ErrNoAmbientLayers indicates none of an environment's layered
	// assets could be resolved, so the ambient source was not created.
	ErrNoAmbientLayers = errors.New("no ambient layers resolved")
)
