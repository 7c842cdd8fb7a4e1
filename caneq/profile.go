// Package caneq holds the canine equalization profiles: fixed parametric
// frequency-response curves tuned for the canine hearing range.
//
// Dogs hear from roughly 40 Hz up past 45 kHz but are far less sensitive to
// sub-bass than humans and most responsive between 500 Hz and 8 kHz. The
// default profile de-emphasizes sub-bass and ultrasonic content and boosts
// that mid band. On top of the default curve, each companion sound type
// carries a small override table of one to three narrow bands emphasizing
// the spectral signature of that sound.
//
// Profiles are immutable value lists passed wholesale to the audio graph's
// equalizer configuration call. Selection is a pure lookup; unknown sound
// types fall back to the default curve.
package caneq

// Band is one parametric equalizer band.
type Band struct {
	FrequencyHz      float64
	GainDB           float64
	BandwidthOctaves float64
}

// SoundType classifies a companion sound for equalization purposes.
type SoundType int

const (
	// SoundTypeUnknown selects the default curve with no overrides.
	SoundTypeUnknown SoundType = iota
	// SoundTypeGrowl is a low rumbling vocalization.
	SoundTypeGrowl
	// SoundTypeBark is a mid-range vocalization.
	SoundTypeBark
	// SoundTypeSqueak is a high-pitched toy or vocal sound.
	SoundTypeSqueak
)

// String returns the string representation of the sound type.
func (t SoundType) String() string {
	switch t {
	case SoundTypeGrowl:
		return "growl"
	case SoundTypeBark:
		return "bark"
	case SoundTypeSqueak:
		return "squeak"
	default:
		return "unknown"
	}
}

// Profile is an ordered list of equalizer bands: the fixed base curve
// followed by any per-sound-type overrides.
type Profile struct {
	Bands []Band
}

// defaultBands is the fixed 10-band curve spanning ~40 Hz–48 kHz.
// Sub-bass and ultrasonic shoulders are pulled down, 500 Hz–8 kHz lifted.
var defaultBands = [10]Band{
	{FrequencyHz: 40, GainDB: -8.0, BandwidthOctaves: 1.5},
	{FrequencyHz: 125, GainDB: -4.0, BandwidthOctaves: 1.2},
	{FrequencyHz: 250, GainDB: -1.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 500, GainDB: 2.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 1000, GainDB: 4.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 2000, GainDB: 4.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 4000, GainDB: 3.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 8000, GainDB: 2.0, BandwidthOctaves: 1.0},
	{FrequencyHz: 16000, GainDB: -2.0, BandwidthOctaves: 1.2},
	{FrequencyHz: 48000, GainDB: -6.0, BandwidthOctaves: 1.5},
}

// soundTypeOverrides holds the narrow emphasis bands keyed by sound type.
var soundTypeOverrides = map[SoundType][]Band{
	SoundTypeGrowl: {
		{FrequencyHz: 30, GainDB: 5.0, BandwidthOctaves: 0.5},
		{FrequencyHz: 90, GainDB: 2.0, BandwidthOctaves: 0.5},
	},
	SoundTypeBark: {
		{FrequencyHz: 1000, GainDB: 3.0, BandwidthOctaves: 0.4},
	},
	SoundTypeSqueak: {
		{FrequencyHz: 4000, GainDB: 4.0, BandwidthOctaves: 0.4},
		{FrequencyHz: 8000, GainDB: 2.0, BandwidthOctaves: 0.5},
	},
}

// Default returns the flat 10-band canine curve with no overrides.
func Default() Profile {
	bands := make([]Band, len(defaultBands))
	copy(bands, defaultBands[:])
	return Profile{Bands: bands}
}

// Overrides returns the narrow override bands for a sound type, or nil when
// the type carries none.
func Overrides(t SoundType) []Band {
	src, ok := soundTypeOverrides[t]
	if !ok {
		return nil
	}
	bands := make([]Band, len(src))
	copy(bands, src)
	return bands
}

// ForSoundType returns the default curve followed by the override bands for
// the given sound type. Unknown types yield the plain default curve.
func ForSoundType(t SoundType) Profile {
	p := Default()
	p.Bands = append(p.Bands, Overrides(t)...)
	return p
}
