package room

import "math"

// BoundingBox is an axis-aligned box described by its two extreme corners.
type BoundingBox struct {
	Min Vec3
	Max Vec3
}

// Size returns the edge lengths of the box.
func (b BoundingBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Volume returns the enclosed volume in cubic meters.
func (b BoundingBox) Volume() float64 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Vec3{
			X: math.Min(b.Min.X, o.Min.X),
			Y: math.Min(b.Min.Y, o.Min.Y),
			Z: math.Min(b.Min.Z, o.Min.Z),
		},
		Max: Vec3{
			X: math.Max(b.Max.X, o.Max.X),
			Y: math.Max(b.Max.Y, o.Max.Y),
			Z: math.Max(b.Max.Z, o.Max.Z),
		},
	}
}

// Mesh is one scanned surface, a set of vertices in room coordinates.
type Mesh struct {
	Vertices []Vec3
}

// BoundingBox returns the axis-aligned bounds of the mesh vertices.
// An empty mesh yields the zero box.
func (m Mesh) BoundingBox() BoundingBox {
	if len(m.Vertices) == 0 {
		return BoundingBox{}
	}

	box := BoundingBox{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		box = box.Union(BoundingBox{Min: v, Max: v})
	}
	return box
}

// Center returns the center of the mesh bounding box.
func (m Mesh) Center() Vec3 {
	return m.BoundingBox().Center()
}

// ProjectedArea approximates the acoustically relevant face area of the mesh
// as the product of the two largest bounding-box edge lengths. Scanned walls
// and floors are thin boxes, so this is the area of their dominant face.
func (m Mesh) ProjectedArea() float64 {
	s := m.BoundingBox().Size()
	dims := []float64{s.X, s.Y, s.Z}

	// Drop the smallest dimension.
	smallest := 0
	for i, d := range dims {
		if d < dims[smallest] {
			smallest = i
		}
	}

	area := 1.0
	for i, d := range dims {
		if i != smallest {
			area *= d
		}
	}
	return area
}

// RoomGeometry is one immutable scan of the physical space, with surface
// meshes partitioned into walls, floors, and furniture.
type RoomGeometry struct {
	Walls     []Mesh
	Floors    []Mesh
	Furniture []Mesh

	// Version increases with each rescan. Consumers may cache values
	// derived from a geometry snapshot keyed by this stamp.
	Version uint64
}

// BoundingBox returns the bounds enclosing every mesh in the geometry.
func (g RoomGeometry) BoundingBox() BoundingBox {
	var (
		box   BoundingBox
		first = true
	)

	for _, group := range [][]Mesh{g.Walls, g.Floors, g.Furniture} {
		for _, m := range group {
			if len(m.Vertices) == 0 {
				continue
			}
			if first {
				box = m.BoundingBox()
				first = false
				continue
			}
			box = box.Union(m.BoundingBox())
		}
	}
	return box
}

// Volume returns the room volume in cubic meters, derived from the
// geometry bounding box.
func (g RoomGeometry) Volume() float64 {
	return g.BoundingBox().Volume()
}

// SurfaceCount returns the total number of meshes across all categories.
func (g RoomGeometry) SurfaceCount() int {
	return len(g.Walls) + len(g.Floors) + len(g.Furniture)
}
