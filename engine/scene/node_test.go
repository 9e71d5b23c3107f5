package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChildReparents(t *testing.T) {
	a := NewNode()
	b := NewNode()
	child := NewNode()

	a.AddChild(child)
	require.Same(t, a, child.Parent())
	require.Len(t, a.Children(), 1)

	b.AddChild(child)
	assert.Same(t, b, child.Parent())
	assert.Empty(t, a.Children())
	assert.Len(t, b.Children(), 1)
}

func TestRemoveChildDetaches(t *testing.T) {
	root := NewNode()
	child := NewNode()
	root.AddChild(child)

	root.RemoveChild(child)
	assert.Nil(t, child.Parent())
	assert.Empty(t, root.Children())

	// Removing a stranger is a no-op.
	other := NewNode()
	root.RemoveChild(other)
}

func TestRefreshTransformPropagates(t *testing.T) {
	root := NewNode()
	root.SetLocalTransform(mgl32.Translate3D(1, 0, 0))

	child := NewNode()
	child.SetLocalTransform(mgl32.Translate3D(0, 2, 0))
	root.AddChild(child)

	grandchild := NewNode()
	grandchild.SetLocalTransform(mgl32.Translate3D(0, 0, 3))
	child.AddChild(grandchild)

	root.RefreshTransform(mgl32.Ident4())

	world := grandchild.WorldTransform()
	assert.InDelta(t, 1, world.At(0, 3), 1e-6)
	assert.InDelta(t, 2, world.At(1, 3), 1e-6)
	assert.InDelta(t, 3, world.At(2, 3), 1e-6)
}

func TestDrawFlattensMeshSurfaces(t *testing.T) {
	pipeline := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 2}}
	opaque := &MaterialInstance{Pipeline: pipeline, MaterialSet: ResourceRef{ID: 10}, Mode: AlphaModeOpaque}
	blend := &MaterialInstance{Pipeline: pipeline, MaterialSet: ResourceRef{ID: 11}, Mode: AlphaModeBlend}

	mesh := &MeshAsset{
		Name: "two-surface",
		Surfaces: []GeoSurface{
			{StartIndex: 0, Count: 36, Material: opaque},
			{StartIndex: 36, Count: 12, Material: blend},
		},
		Buffers: &GPUMeshBuffers{
			IndexBuffer:  ResourceRef{ID: 20},
			VertexBuffer: ResourceRef{ID: 21},
		},
	}

	root := NewNode()
	meshNode := NewMeshNode(mesh)
	meshNode.SetLocalTransform(mgl32.Translate3D(5, 0, 0))
	root.AddChild(meshNode)

	emptyChild := NewNode()
	meshNode.AddChild(emptyChild)

	root.RefreshTransform(mgl32.Ident4())

	var ctx DrawContext
	root.Draw(mgl32.Ident4(), &ctx)

	require.Len(t, ctx.Opaque, 1)
	require.Len(t, ctx.Transparent, 1)
	assert.Equal(t, uint32(36), ctx.Opaque[0].IndexCount)
	assert.Equal(t, uint32(36), ctx.Transparent[0].FirstIndex)
	assert.InDelta(t, 5, ctx.Opaque[0].Transform.At(0, 3), 1e-6)
}

func TestDrawAppliesTopMatrix(t *testing.T) {
	mesh := &MeshAsset{
		Surfaces: []GeoSurface{{Count: 3}},
		Buffers:  &GPUMeshBuffers{},
	}
	node := NewMeshNode(mesh)
	node.RefreshTransform(mgl32.Ident4())

	var ctx DrawContext
	node.Draw(mgl32.Translate3D(0, 7, 0), &ctx)

	require.Len(t, ctx.Opaque, 1)
	assert.InDelta(t, 7, ctx.Opaque[0].Transform.At(1, 3), 1e-6)
}
