package acoustics

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/denster32/dogtv-audio/room"
)

const (
	// furnitureExposure discounts furniture surface area to approximate
	// partial occlusion: roughly half of a furniture mesh faces the room.
	furnitureExposure = 0.5

	// defaultAbsorption is used when a geometry has no measurable surface
	// area at all.
	defaultAbsorption = 0.1

	// minTotalAbsorption floors the Sabine denominator so near-zero
	// absorption rooms do not blow up the reverb time.
	minTotalAbsorption = 1.0

	// minRoomVolume keeps the Schroeder and critical-distance relations
	// finite for degenerate scans.
	minRoomVolume = 0.001
)

// Model is the scalar acoustic description of one geometry snapshot.
// It is immutable once computed and replaced wholesale on each update.
type Model struct {
	GeometryVersion uint64

	RoomVolume  float64 // m³
	SurfaceArea float64 // m², furniture counted at partial exposure

	// Absorption is the area-weighted mean absorption coefficient.
	Absorption float64

	ReverbTime         float64 // RT60, seconds
	SchroederFrequency float64 // Hz
	CriticalDistance   float64 // meters
}

// ComputeModel derives the scalar room descriptors from a geometry snapshot
// and its material assignment. It is a cheap pure function, recomputed
// synchronously whenever geometry changes; callers may cache the result
// keyed by the geometry Version stamp.
func ComputeModel(geo room.RoomGeometry, mats MaterialSet) Model {
	wallArea := meshArea(geo.Walls)
	floorArea := meshArea(geo.Floors)
	furnitureArea := meshArea(geo.Furniture) * furnitureExposure

	surfaceArea := wallArea + floorArea + furnitureArea

	absorption := defaultAbsorption
	if surfaceArea > 0 {
		absorption = (mats.Walls.Absorption*wallArea +
			mats.Floors.Absorption*floorArea +
			mats.Furniture.Absorption*furnitureArea) / surfaceArea
	}

	volume := math.Max(geo.Volume(), minRoomVolume)

	// Sabine: RT60 = 0.16 V / A, floored so empty or highly absorbent
	// rooms stay well-behaved.
	totalAbsorption := math.Max(absorption*surfaceArea, minTotalAbsorption)
	rt60 := 0.16 * volume / totalAbsorption

	model := Model{
		GeometryVersion:    geo.Version,
		RoomVolume:         volume,
		SurfaceArea:        surfaceArea,
		Absorption:         absorption,
		ReverbTime:         rt60,
		SchroederFrequency: 2000 * math.Sqrt(rt60/volume),
		CriticalDistance:   0.057 * math.Sqrt(volume/rt60),
	}

	logrus.WithFields(logrus.Fields{
		"function":         "ComputeModel",
		"geometry_version": geo.Version,
		"room_volume":      model.RoomVolume,
		"surface_area":     model.SurfaceArea,
		"absorption":       model.Absorption,
		"rt60":             model.ReverbTime,
		"schroeder_hz":     model.SchroederFrequency,
		"critical_dist":    model.CriticalDistance,
	}).Debug("Computed acoustic model")

	return model
}

func meshArea(meshes []room.Mesh) float64 {
	var total float64
	for _, m := range meshes {
		total += m.ProjectedArea()
	}
	return total
}
