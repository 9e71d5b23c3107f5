package assets

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vireo3d/vireo/engine/scene"
)

// Geometry is CPU-side mesh data ready for upload, with the bounds the
// culler needs.
type Geometry struct {
	Vertices []scene.Vertex
	Indices  []uint32
	Bounds   scene.Bounds
}

// GenerateCube builds an axis-aligned cube centered on the origin with
// per-face normals and UVs.
func GenerateCube(size float32, color mgl32.Vec4) Geometry {
	h := size / 2

	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	geometry := Geometry{
		Vertices: make([]scene.Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
		Bounds: scene.Bounds{
			Extents: mgl32.Vec3{h, h, h},
		},
	}

	for _, f := range faces {
		base := uint32(len(geometry.Vertices))
		for i, corner := range f.corners {
			geometry.Vertices = append(geometry.Vertices, scene.Vertex{
				Position: corner,
				Normal:   f.normal,
				UVx:      uvs[i][0],
				UVy:      uvs[i][1],
				Color:    color,
			})
		}
		geometry.Indices = append(geometry.Indices,
			base, base+1, base+2,
			base, base+2, base+3)
	}
	return geometry
}

// GeneratePlane builds a flat quad in the XZ plane facing up.
func GeneratePlane(width, depth float32, color mgl32.Vec4) Geometry {
	hw, hd := width/2, depth/2
	up := mgl32.Vec3{0, 1, 0}

	return Geometry{
		Vertices: []scene.Vertex{
			{Position: mgl32.Vec3{-hw, 0, hd}, Normal: up, UVx: 0, UVy: 1, Color: color},
			{Position: mgl32.Vec3{hw, 0, hd}, Normal: up, UVx: 1, UVy: 1, Color: color},
			{Position: mgl32.Vec3{hw, 0, -hd}, Normal: up, UVx: 1, UVy: 0, Color: color},
			{Position: mgl32.Vec3{-hw, 0, -hd}, Normal: up, UVx: 0, UVy: 0, Color: color},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
		Bounds: scene.Bounds{
			Extents: mgl32.Vec3{hw, 0, hd},
		},
	}
}
