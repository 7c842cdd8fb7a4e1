package acoustics

import (
	"github.com/sirupsen/logrus"

	"github.com/denster32/dogtv-audio/room"
)

// Material tags the representative construction material of a surface class.
type Material string

// Representative materials for the three surface classes produced by the
// room scanner. Per-mesh material inference is out of scope; each class is
// assigned one coefficient set.
const (
	MaterialPlaster  Material = "plaster"
	MaterialHardwood Material = "hardwood"
	MaterialFabric   Material = "fabric"
)

// MaterialProperties describes how one surface class interacts with sound.
// All coefficients are in [0,1]. Reflection ≈ 1 − absorption is a design
// target, not an enforced invariant.
type MaterialProperties struct {
	Material   Material
	Absorption float64
	Reflection float64
	Diffusion  float64
}

// MaterialSet holds the per-class material assignment for one geometry
// snapshot. It is regenerated in full on every geometry update.
type MaterialSet struct {
	Walls     MaterialProperties
	Floors    MaterialProperties
	Furniture MaterialProperties
}

// ClassifyMaterials assigns acoustic material properties to the three
// surface classes of a geometry snapshot. It always succeeds: walls are
// treated as plaster, floors as hardwood, and furniture as fabric.
func ClassifyMaterials(geo room.RoomGeometry) MaterialSet {
	set := MaterialSet{
		Walls: MaterialProperties{
			Material:   MaterialPlaster,
			Absorption: 0.1,
			Reflection: 0.9,
			Diffusion:  0.2,
		},
		Floors: MaterialProperties{
			Material:   MaterialHardwood,
			Absorption: 0.3,
			Reflection: 0.7,
			Diffusion:  0.4,
		},
		Furniture: MaterialProperties{
			Material:   MaterialFabric,
			Absorption: 0.5,
			Reflection: 0.5,
			Diffusion:  0.7,
		},
	}

	logrus.WithFields(logrus.Fields{
		"function":         "ClassifyMaterials",
		"geometry_version": geo.Version,
		"walls":            len(geo.Walls),
		"floors":           len(geo.Floors),
		"furniture":        len(geo.Furniture),
	}).Debug("Classified surface materials")

	return set
}
