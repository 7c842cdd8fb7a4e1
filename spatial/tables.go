package spatial

import "github.com/denster32/dogtv-audio/caneq"

// CompanionCategory groups companions by how loud their sources should
// default: small, quiet companions get quieter sources than large ones.
type CompanionCategory int

const (
	// CategorySmall covers small or quiet companions.
	CategorySmall CompanionCategory = iota
	// CategoryMedium covers mid-sized companions.
	CategoryMedium
	// CategoryLarge covers large or loud companions.
	CategoryLarge
)

// companionVolumeDefaults is an explicit lookup, not a formula; the values
// came out of listening sessions, not math.
var companionVolumeDefaults = map[CompanionCategory]float64{
	CategorySmall:  0.4,
	CategoryMedium: 0.6,
	CategoryLarge:  0.7,
}

// defaultCompanionVolume applies when a category is not in the table.
const defaultCompanionVolume = 0.5

// CompanionVolume returns the default authored volume for a companion
// category.
func CompanionVolume(c CompanionCategory) float64 {
	if v, ok := companionVolumeDefaults[c]; ok {
		return v
	}
	return defaultCompanionVolume
}

// companionAsset maps a sound type to the asset name resolved for it.
func companionAsset(t caneq.SoundType) string {
	return "companion/" + t.String()
}

// EnvironmentType selects an ambient scene preset.
type EnvironmentType int

const (
	// EnvForest layers wind, birdsong, and insects.
	EnvForest EnvironmentType = iota
	// EnvRain layers rainfall and distant thunder.
	EnvRain
	// EnvMeadow layers breeze, birdsong, and grass movement.
	EnvMeadow
	// EnvNight layers crickets and light wind.
	EnvNight
)

// String returns the string representation of the environment type.
func (e EnvironmentType) String() string {
	switch e {
	case EnvForest:
		return "forest"
	case EnvRain:
		return "rain"
	case EnvMeadow:
		return "meadow"
	case EnvNight:
		return "night"
	default:
		return "unknown"
	}
}

// EnvironmentLayer names one layered asset of an ambient scene and its
// level relative to the scene's sub-mixer.
type EnvironmentLayer struct {
	Asset string
	Level float64
}

var environmentLayers = map[EnvironmentType][]EnvironmentLayer{
	EnvForest: {
		{Asset: "ambient/forest/wind", Level: 0.8},
		{Asset: "ambient/forest/birds", Level: 0.6},
		{Asset: "ambient/forest/insects", Level: 0.4},
	},
	EnvRain: {
		{Asset: "ambient/rain/rainfall", Level: 0.9},
		{Asset: "ambient/rain/thunder", Level: 0.3},
	},
	EnvMeadow: {
		{Asset: "ambient/meadow/breeze", Level: 0.7},
		{Asset: "ambient/meadow/birds", Level: 0.6},
		{Asset: "ambient/meadow/grass", Level: 0.4},
	},
	EnvNight: {
		{Asset: "ambient/night/crickets", Level: 0.6},
		{Asset: "ambient/night/wind", Level: 0.4},
	},
}

// EnvironmentLayers returns the layer table for an environment. Unknown
// environments yield nil.
func EnvironmentLayers(e EnvironmentType) []EnvironmentLayer {
	src, ok := environmentLayers[e]
	if !ok {
		return nil
	}
	layers := make([]EnvironmentLayer, len(src))
	copy(layers, src)
	return layers
}
