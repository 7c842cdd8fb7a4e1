package assets

import (
	"fmt"
	"sync"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// opusFrameSamples is the decode buffer size per packet: 40 ms at 48 kHz,
// generous for every legal Opus frame duration.
const opusFrameSamples = 1920

// OpusResolver serves assets stored as sequences of Opus packets, decoding
// them to mono 48 kHz PCM on first resolution and caching the result.
// Decoding uses the pure Go pion/opus decoder.
type OpusResolver struct {
	mu      sync.Mutex
	packets map[string][][]byte
	decoded map[string]*Buffer
}

// NewOpusResolver creates an empty Opus-backed resolver.
func NewOpusResolver() *OpusResolver {
	return &OpusResolver{
		packets: make(map[string][][]byte),
		decoded: make(map[string]*Buffer),
	}
}

// Register stores the Opus packet stream for an asset name. Any cached
// decode for that name is dropped.
func (r *OpusResolver) Register(name string, packets [][]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets[name] = packets
	delete(r.decoded, name)
}

// Resolve decodes the packet stream registered under name into a PCM
// buffer. Returns ErrAssetNotFound for unknown names; a corrupt stream
// surfaces the decoder error wrapped with the asset name.
func (r *OpusResolver) Resolve(name string) (*Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buf, ok := r.decoded[name]; ok {
		return buf, nil
	}

	packets, ok := r.packets[name]
	if !ok {
		return nil, ErrAssetNotFound
	}

	buf, err := decodePackets(name, packets)
	if err != nil {
		return nil, err
	}

	r.decoded[name] = buf

	logrus.WithFields(logrus.Fields{
		"function": "OpusResolver.Resolve",
		"asset":    name,
		"packets":  len(packets),
		"samples":  len(buf.Samples),
	}).Debug("Decoded opus asset")

	return buf, nil
}

func decodePackets(name string, packets [][]byte) (*Buffer, error) {
	decoder := opus.NewDecoder()

	var samples []float32
	for i, pkt := range packets {
		if len(pkt) == 0 {
			continue
		}

		// Decode does not report a frame length, so a fresh zeroed
		// buffer per packet keeps short frames padded with silence
		// instead of the previous packet's audio. Sized for the
		// interleaved stereo case.
		out := make([]byte, opusFrameSamples*2*2)

		_, isStereo, err := decoder.Decode(pkt, out)
		if err != nil {
			return nil, fmt.Errorf("decoding opus asset %q packet %d: %w", name, i, err)
		}

		pcm := out[:opusFrameSamples*2]
		if isStereo {
			pcm = out
		}
		samples = append(samples, framePCM(pcm, isStereo)...)
	}

	return &Buffer{
		Name:    name,
		Format:  Format{SampleRate: 48000, Channels: 1},
		Samples: samples,
	}, nil
}

// framePCM converts one decoded frame of 16-bit little-endian PCM to mono
// float32 samples, downmixing interleaved stereo frames to keep the buffer
// honest about its single channel.
func framePCM(pcm []byte, isStereo bool) []float32 {
	samples := make([]float32, 0, opusFrameSamples)
	if isStereo {
		for s := 0; s+3 < len(pcm); s += 4 {
			left := int16(pcm[s]) | int16(pcm[s+1])<<8
			right := int16(pcm[s+2]) | int16(pcm[s+3])<<8
			samples = append(samples, (float32(left)+float32(right))/(2*32768))
		}
		return samples
	}

	for s := 0; s+1 < len(pcm); s += 2 {
		raw := int16(pcm[s]) | int16(pcm[s+1])<<8
		samples = append(samples, float32(raw)/32768)
	}
	return samples
}
