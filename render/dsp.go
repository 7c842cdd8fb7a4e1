package render

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/denster32/dogtv-audio/acoustics"
	"github.com/denster32/dogtv-audio/assets"
	"github.com/denster32/dogtv-audio/caneq"
	"github.com/denster32/dogtv-audio/room"
)

// pcmReader feeds precomputed little-endian float32 PCM to an oto player.
type pcmReader struct {
	data []byte
	pos  int
}

func (r *pcmReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func waitDrained(player oto.Player) {
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}

// toMono folds a buffer down to one channel for processing; the spread step
// re-expands it to the device layout.
func toMono(buf *assets.Buffer) []float32 {
	ch := buf.Format.Channels
	if ch <= 1 {
		out := make([]float32, len(buf.Samples))
		copy(out, buf.Samples)
		return out
	}

	frames := len(buf.Samples) / ch
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += buf.Samples[f*ch+c]
		}
		out[f] = sum / float32(ch)
	}
	return out
}

// resampleLinear converts between sample rates with linear interpolation,
// good enough for a reference backend.
func resampleLinear(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || len(in) == 0 {
		return in
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(in)) / ratio)
	out := make([]float32, outLen)

	for i := range out {
		srcPos := float64(i) * ratio
		j := int(srcPos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(srcPos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

// biquad is one direct-form-I second-order section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// peakingFilter builds an RBJ peaking-EQ section for one band. Bands at or
// above Nyquist return nil and are skipped.
func peakingFilter(band caneq.Band, sampleRate int) *biquad {
	nyquist := float64(sampleRate) / 2
	if band.FrequencyHz <= 0 || band.FrequencyHz >= nyquist {
		return nil
	}

	a := math.Pow(10, band.GainDB/40)
	w0 := 2 * math.Pi * band.FrequencyHz / float64(sampleRate)
	bw := band.BandwidthOctaves
	if bw <= 0 {
		bw = 1
	}
	alpha := math.Sin(w0) * math.Sinh(math.Ln2/2*bw*w0/math.Sin(w0))

	a0 := 1 + alpha/a
	return &biquad{
		b0: (1 + alpha*a) / a0,
		b1: (-2 * math.Cos(w0)) / a0,
		b2: (1 - alpha*a) / a0,
		a1: (-2 * math.Cos(w0)) / a0,
		a2: (1 - alpha/a) / a0,
	}
}

// applyEQ runs the band table over the samples as a series of peaking
// sections.
func applyEQ(samples []float32, bands []caneq.Band, sampleRate int) []float32 {
	filters := make([]*biquad, 0, len(bands))
	for _, band := range bands {
		if f := peakingFilter(band, sampleRate); f != nil {
			filters = append(filters, f)
		}
	}
	if len(filters) == 0 {
		return samples
	}

	out := make([]float32, len(samples))
	for i, s := range samples {
		x := float64(s)
		for _, f := range filters {
			x = f.process(x)
		}
		out[i] = float32(x)
	}
	return out
}

// applyReverbTail appends a decaying tail using a single feedback comb.
// The comb delay is the pre-delay plus a fixed spread, and the feedback
// gain is chosen so the tail decays 60 dB over the decay time.
func applyReverbTail(samples []float32, params acoustics.ReverbParameters, sampleRate int) []float32 {
	delaySec := params.PreDelay + 0.03
	delay := int(delaySec * float64(sampleRate))
	if delay <= 0 {
		return samples
	}

	decay := math.Min(params.DecayTime, 3.0)
	tail := int(decay * float64(sampleRate))
	wet := float32(0.2 + 0.3*params.RoomSize)

	// g^(decay/delaySec) == 1e-3 → 60 dB decay over the full tail.
	g := math.Pow(10, -3*delaySec/math.Max(decay, delaySec))
	feedback := float32(g * (1 - params.Dampening*0.5))

	out := make([]float32, len(samples)+tail)
	copy(out, samples)
	for i := delay; i < len(out); i++ {
		out[i] += wet * feedback * out[i-delay]
	}
	return out
}

// spread expands mono samples to the device channel layout with a
// constant-power pan derived from the source azimuth, listening from the
// origin.
func spread(samples []float32, pos room.Vec3, channels int) []byte {
	if channels <= 1 {
		return toBytes(samples)
	}

	pan := 0.0
	if horiz := math.Hypot(pos.X, pos.Z); horiz > 1e-9 {
		pan = pos.X / horiz
	}
	angle := (pan + 1) * math.Pi / 4
	left := float32(math.Cos(angle))
	right := float32(math.Sin(angle))

	out := make([]float32, len(samples)*channels)
	for i, s := range samples {
		out[i*channels] = s * left
		out[i*channels+1] = s * right
		for c := 2; c < channels; c++ {
			out[i*channels+c] = s * 0.5 * (left + right)
		}
	}
	return toBytes(out)
}

func toBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
