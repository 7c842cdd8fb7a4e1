package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResolver(t *testing.T) {
	r := NewMemoryResolver()
	format := Format{SampleRate: 48000, Channels: 1}
	r.Register("companion/bark", format, []float32{0.1, 0.2, 0.3})

	buf, err := r.Resolve("companion/bark")
	require.NoError(t, err)
	assert.Equal(t, "companion/bark", buf.Name)
	assert.Equal(t, format, buf.Format)
	assert.Len(t, buf.Samples, 3)
}

func TestMemoryResolverNotFound(t *testing.T) {
	r := NewMemoryResolver()

	buf, err := r.Resolve("missing")
	assert.Nil(t, buf)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

// TestMemoryResolverReplace verifies re-registering a name swaps the buffer.
func TestMemoryResolverReplace(t *testing.T) {
	r := NewMemoryResolver()
	format := Format{SampleRate: 48000, Channels: 1}
	r.Register("toy", format, []float32{1})
	r.Register("toy", format, []float32{1, 2})

	buf, err := r.Resolve("toy")
	require.NoError(t, err)
	assert.Len(t, buf.Samples, 2)
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{
		Format:  Format{SampleRate: 48000, Channels: 2},
		Samples: make([]float32, 96000),
	}
	assert.InDelta(t, 1.0, buf.Duration(), 1e-9)

	// Degenerate formats report zero rather than dividing by zero.
	empty := &Buffer{}
	assert.Zero(t, empty.Duration())
}

func TestOpusResolverNotFound(t *testing.T) {
	r := NewOpusResolver()

	buf, err := r.Resolve("missing")
	assert.Nil(t, buf)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

// TestOpusResolverEmptyPackets verifies zero-length packets are skipped
// rather than handed to the decoder.
func TestOpusResolverEmptyPackets(t *testing.T) {
	r := NewOpusResolver()
	r.Register("silence", [][]byte{nil, {}, nil})

	buf, err := r.Resolve("silence")
	require.NoError(t, err)
	assert.Equal(t, 48000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.Channels)
	assert.Empty(t, buf.Samples)
}

// TestFramePCMMono verifies 16-bit little-endian extraction and the fixed
// frame length: a mono frame yields exactly one sample per int16, so a
// short decode padded with zero bytes contributes silence, never leftovers.
func TestFramePCMMono(t *testing.T) {
	pcm := make([]byte, opusFrameSamples*2)
	pcm[0], pcm[1] = 0x00, 0x40 // 16384 → 0.5
	pcm[2], pcm[3] = 0x00, 0xC0 // -16384 → -0.5

	samples := framePCM(pcm, false)
	require.Len(t, samples, opusFrameSamples)
	assert.InDelta(t, 0.5, samples[0], 1e-6)
	assert.InDelta(t, -0.5, samples[1], 1e-6)
	for _, s := range samples[2:] {
		assert.Zero(t, s)
	}
}

// TestFramePCMStereoDownmix verifies interleaved stereo frames fold to one
// mono sample per frame rather than doubling the sample count.
func TestFramePCMStereoDownmix(t *testing.T) {
	pcm := make([]byte, opusFrameSamples*2*2)
	// Frame 0: L = 16384, R = 16384 → 0.5.
	pcm[0], pcm[1] = 0x00, 0x40
	pcm[2], pcm[3] = 0x00, 0x40
	// Frame 1: L = 16384, R = -16384 → 0.
	pcm[4], pcm[5] = 0x00, 0x40
	pcm[6], pcm[7] = 0x00, 0xC0

	samples := framePCM(pcm, true)
	require.Len(t, samples, opusFrameSamples)
	assert.InDelta(t, 0.5, samples[0], 1e-6)
	assert.InDelta(t, 0.0, samples[1], 1e-6)
}

// TestOpusResolverCaches verifies the decode result is reused: registering
// again invalidates, resolving twice returns the identical buffer.
func TestOpusResolverCaches(t *testing.T) {
	r := NewOpusResolver()
	r.Register("silence", [][]byte{})

	first, err := r.Resolve("silence")
	require.NoError(t, err)
	second, err := r.Resolve("silence")
	require.NoError(t, err)
	assert.Same(t, first, second)

	r.Register("silence", [][]byte{})
	third, err := r.Resolve("silence")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}
