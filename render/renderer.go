// Package render is a software reference implementation of the graph
// contract, backed by hajimehoshi/oto for output.
//
// It exists so the engine is runnable end to end without the production
// audio stack: buffers are processed offline (equalization, reverb tail,
// pan, gain) at schedule time and the precomputed PCM is handed to oto,
// which pulls it from its own playback thread. No engine bookkeeping or
// allocation happens on that thread.
//
// The renderer listens from the coordinate origin; callers feed it
// positions already expressed relative to the listener, or accept that
// approximation in development use.
package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/oto/v2"
	"github.com/sirupsen/logrus"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/graph"
	"github.com/denster32/dogtv-audio/room"
)

// ErrNotStarted indicates a buffer was scheduled before Start.
var ErrNotStarted = errors.New("renderer is not started")

// node is one processing stage. Parameters are written by the engine
// goroutine and read at schedule time; downstream links form the chains
// built by Connect.
type node struct {
	kind graph.NodeKind

	mu         sync.Mutex
	gain       float64
	position   room.Vec3
	bands      []caneq.Band
	reverb     acoustics.ReverbParameters
	hasReverb  bool
	downstream *node
}

func (n *node) setGain(g float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gain = g
}

// playback tracks one live oto player so gain changes reach sounds already
// playing.
type playback struct {
	src    *node
	player oto.Player
}

// Renderer implements graph.Graph with a software mixer.
type Renderer struct {
	format assets.Format
	ctx    *oto.Context
	ready  chan struct{}

	mu      sync.Mutex
	nodes   map[*node]struct{}
	active  []*playback
	running bool
}

// NewRenderer opens the audio device for the given format and returns a
// stopped renderer. Call Start before scheduling buffers.
func NewRenderer(format assets.Format) (*Renderer, error) {
	// Third argument 0 selects 32-bit float little-endian samples.
	ctx, ready, err := oto.NewContext(format.SampleRate, format.Channels, 0)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewRenderer",
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
	}).Info("Software renderer created")

	return &Renderer{
		format: format,
		ctx:    ctx,
		ready:  ready,
		nodes:  make(map[*node]struct{}),
	}, nil
}

// Attach creates a node of the given kind.
func (r *Renderer) Attach(kind graph.NodeKind) (graph.Node, error) {
	n := &node{kind: kind, gain: 1.0}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n] = struct{}{}
	return n, nil
}

func (r *Renderer) lookup(handle graph.Node) (*node, error) {
	n, ok := handle.(*node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: foreign node handle", graph.ErrAttachmentFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[n]; !ok {
		return nil, fmt.Errorf("%w: detached node", graph.ErrAttachmentFailed)
	}
	return n, nil
}

// Connect routes from's output into to.
func (r *Renderer) Connect(from, to graph.Node, format assets.Format) error {
	if format.SampleRate != r.format.SampleRate {
		return fmt.Errorf("%w: format %d Hz does not match device %d Hz",
			graph.ErrAttachmentFailed, format.SampleRate, r.format.SampleRate)
	}

	src, err := r.lookup(from)
	if err != nil {
		return err
	}
	dst, err := r.lookup(to)
	if err != nil {
		return err
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	src.downstream = dst
	return nil
}

// Detach removes a node. Playbacks sourced from it keep draining; the node
// simply stops receiving parameter updates. Unknown nodes are a no-op.
func (r *Renderer) Detach(handle graph.Node) error {
	n, ok := handle.(*node)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, n)
	return nil
}

// SetGain updates a node's gain and re-levels every live playback; each
// playback's volume is recomputed from its own chain, so chains not
// including the node come out unchanged.
func (r *Renderer) SetGain(handle graph.Node, gain float64) error {
	n, err := r.lookup(handle)
	if err != nil {
		return err
	}
	n.setGain(gain)

	r.mu.Lock()
	active := make([]*playback, len(r.active))
	copy(active, r.active)
	r.mu.Unlock()

	for _, p := range active {
		p.player.SetVolume(chainGain(p.src))
	}
	return nil
}

// SetPosition updates a spatializer node's position.
func (r *Renderer) SetPosition(handle graph.Node, pos room.Vec3) error {
	n, err := r.lookup(handle)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = pos
	return nil
}

// SetEqualizer replaces a node's band table.
func (r *Renderer) SetEqualizer(handle graph.Node, bands []caneq.Band) error {
	n, err := r.lookup(handle)
	if err != nil {
		return err
	}

	copied := make([]caneq.Band, len(bands))
	copy(copied, bands)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.bands = copied
	return nil
}

// SetReverb replaces a node's reverb parameters.
func (r *Renderer) SetReverb(handle graph.Node, params acoustics.ReverbParameters) error {
	n, err := r.lookup(handle)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.reverb = params
	n.hasReverb = true
	return nil
}

// ScheduleBuffer renders one buffer through the node's downstream chain and
// starts playback. completion runs on the playback goroutine after the
// sound drains, never during this call.
func (r *Renderer) ScheduleBuffer(handle graph.Node, buf *assets.Buffer, completion func()) error {
	src, err := r.lookup(handle)
	if err != nil {
		return err
	}
	if buf == nil || len(buf.Samples) == 0 {
		return errors.New("cannot schedule empty buffer")
	}

	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return ErrNotStarted
	}

	pcm := r.renderChain(src, buf)

	go func() {
		<-r.ready

		player := r.ctx.NewPlayer(&pcmReader{data: pcm})
		p := &playback{src: src, player: player}

		r.mu.Lock()
		r.active = append(r.active, p)
		r.mu.Unlock()

		player.SetVolume(chainGain(src))
		player.Play()
		waitDrained(player)
		_ = player.Close()

		r.mu.Lock()
		for i, a := range r.active {
			if a == p {
				r.active = append(r.active[:i], r.active[i+1:]...)
				break
			}
		}
		r.mu.Unlock()

		if completion != nil {
			completion()
		}
	}()

	return nil
}

// renderChain applies the chain's equalization, reverb tail, and pan to a
// buffer, producing interleaved device-format PCM bytes. Gain is applied
// live through the player volume so later SetGain calls still land.
func (r *Renderer) renderChain(src *node, buf *assets.Buffer) []byte {
	bands, reverb, hasReverb, pos := collectChain(src)

	samples := toMono(buf)
	if buf.Format.SampleRate != r.format.SampleRate {
		samples = resampleLinear(samples, buf.Format.SampleRate, r.format.SampleRate)
	}

	if len(bands) > 0 {
		samples = applyEQ(samples, bands, r.format.SampleRate)
	}
	if hasReverb {
		samples = applyReverbTail(samples, reverb, r.format.SampleRate)
	}

	return spread(samples, pos, r.format.Channels)
}

// collectChain walks downstream from a source node, gathering the band
// tables, first reverb parameters, and spatializer position along the path.
func collectChain(src *node) (bands []caneq.Band, reverb acoustics.ReverbParameters, hasReverb bool, pos room.Vec3) {
	for n := src; n != nil; {
		n.mu.Lock()
		if n.kind == graph.NodeSpatializer {
			pos = n.position
		}
		if len(n.bands) > 0 {
			bands = append(bands, n.bands...)
		}
		if n.hasReverb && !hasReverb {
			reverb = n.reverb
			hasReverb = true
		}
		next := n.downstream
		n.mu.Unlock()
		n = next
	}
	return bands, reverb, hasReverb, pos
}

// chainGain is the product of gains along a source's downstream path.
func chainGain(src *node) float64 {
	gain := 1.0
	for n := src; n != nil; {
		n.mu.Lock()
		gain *= n.gain
		next := n.downstream
		n.mu.Unlock()
		n = next
	}
	if gain < 0 {
		return 0
	}
	if gain > 1 {
		return 1
	}
	return gain
}

// Start begins accepting buffers.
func (r *Renderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return nil
}

// Stop halts playback and drops all live players.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	r.running = false
	active := r.active
	r.active = nil
	r.mu.Unlock()

	for _, p := range active {
		_ = p.player.Close()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Stop",
		"dropped":  len(active),
	}).Info("Software renderer stopped")

	return nil
}
