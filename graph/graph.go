// Package graph defines the contract between the spatial audio engine and
// the external audio-rendering graph.
//
// The engine never renders audio itself: it attaches nodes, connects them
// into processing chains, and pushes small precomputed parameter values
// (gain scalars, equalizer band tables, reverb parameter structs) into the
// graph. The graph implementation owns the real-time rendering thread; no
// engine bookkeeping ever runs there.
//
// The render package provides a software reference implementation; a
// production deployment supplies its own backed by platform audio units.
package graph

import (
	"errors"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/room"
)

// ErrAttachmentFailed indicates the graph rejected a node attachment or
// connection, for example on a format mismatch. Creation of the one source
// involved fails; nothing else is invalidated.
var ErrAttachmentFailed = errors.New("audio graph attachment failed")

// NodeKind identifies the processing role of a graph node.
type NodeKind int

const (
	// NodeSource feeds scheduled buffers into the graph.
	NodeSource NodeKind = iota
	// NodeSpatializer positions a source in 3D relative to the listener.
	NodeSpatializer
	// NodeEqualizer applies a parametric band table.
	NodeEqualizer
	// NodeReverb applies the room reverberation model.
	NodeReverb
	// NodeCompressor applies output dynamics control.
	NodeCompressor
	// NodeMixer sums its inputs.
	NodeMixer
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeSource:
		return "source"
	case NodeSpatializer:
		return "spatializer"
	case NodeEqualizer:
		return "equalizer"
	case NodeReverb:
		return "reverb"
	case NodeCompressor:
		return "compressor"
	case NodeMixer:
		return "mixer"
	default:
		return "unknown"
	}
}

// Node is an opaque handle to a node inside a Graph implementation.
type Node interface{}

// Graph is the minimal interface the engine needs from an external
// audio-rendering graph. Implementations must tolerate concurrent calls
// from the engine's owning goroutine interleaved with their own real-time
// rendering.
type Graph interface {
	// Attach creates a node of the given kind.
	Attach(kind NodeKind) (Node, error)

	// Connect routes from's output into to's input using format.
	Connect(from, to Node, format assets.Format) error

	// Detach removes a node and its connections. Detaching an unknown
	// node is a no-op.
	Detach(n Node) error

	// SetGain updates a node's output gain multiplier.
	SetGain(n Node, gain float64) error

	// SetPosition updates a spatializer node's 3D position.
	SetPosition(n Node, pos room.Vec3) error

	// SetEqualizer replaces an equalizer node's band table wholesale.
	SetEqualizer(n Node, bands []caneq.Band) error

	// SetReverb replaces a reverb node's parameters wholesale.
	SetReverb(n Node, params acoustics.ReverbParameters) error

	// ScheduleBuffer queues one buffer on a source node. completion, if
	// non-nil, is invoked once the buffer finishes playing (never during
	// this call).
	ScheduleBuffer(n Node, buf *assets.Buffer, completion func()) error

	// Start begins rendering.
	Start() error

	// Stop halts rendering and releases output resources. The engine
	// stops all sources before calling Stop.
	Stop() error
}
