package dogtvaudio

import "errors"

// Sentinel errors for engine lifecycle operations. Classify with
// errors.Is().
var (
	// ErrEngineTerminated indicates an operation was attempted after
	// Shutdown. This is a usage error in the caller, not a recoverable
	// runtime condition: a terminated engine never comes back.
	ErrEngineTerminated = errors.New("engine has been shut down")

	// ErrEngineNotConfigured indicates a source operation arrived before
	// Configure wired the audio graph.
	ErrEngineNotConfigured = errors.New("engine is not configured")

	// ErrEngineAlreadyConfigured indicates Configure was called twice.
	ErrEngineAlreadyConfigured = errors.New("engine is already configured")
)
