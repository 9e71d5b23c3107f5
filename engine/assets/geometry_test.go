package assets

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCube(t *testing.T) {
	cube := GenerateCube(2, mgl32.Vec4{1, 0, 0, 1})

	assert.Len(t, cube.Vertices, 24)
	assert.Len(t, cube.Indices, 36)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, cube.Bounds.Extents)

	// Every vertex sits on the surface and carries a unit normal.
	for _, v := range cube.Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-5)
		onFace := false
		for i := 0; i < 3; i++ {
			if v.Position[i] == 1 || v.Position[i] == -1 {
				onFace = true
			}
		}
		assert.True(t, onFace)
		assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, v.Color)
	}

	for _, idx := range cube.Indices {
		require.Less(t, int(idx), len(cube.Vertices))
	}
}

func TestGenerateCubeWindingFacesOutward(t *testing.T) {
	cube := GenerateCube(2, mgl32.Vec4{1, 1, 1, 1})

	// Each triangle's geometric normal must agree with its vertices'
	// stored normal, otherwise backface culling would eat the face.
	for i := 0; i+2 < len(cube.Indices); i += 3 {
		a := cube.Vertices[cube.Indices[i]]
		b := cube.Vertices[cube.Indices[i+1]]
		c := cube.Vertices[cube.Indices[i+2]]

		geometric := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		assert.Greater(t, geometric.Dot(a.Normal), float32(0))
	}
}

func TestGeneratePlane(t *testing.T) {
	plane := GeneratePlane(10, 4, mgl32.Vec4{1, 1, 1, 1})

	assert.Len(t, plane.Vertices, 4)
	assert.Len(t, plane.Indices, 6)
	assert.Equal(t, mgl32.Vec3{5, 0, 2}, plane.Bounds.Extents)

	for _, v := range plane.Vertices {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, v.Normal)
		assert.Zero(t, v.Position.Y())
	}
}
