package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures emission calls for inspection.
type recordingSink struct {
	pipelineBinds []uint64
	globalBinds   []uint64
	materialBinds []uint64
	indexBinds    []uint64
	vertexBinds   []uint64
	draws         []mgl32.Mat4
}

func (r *recordingSink) BindPipeline(pipeline ResourceRef) {
	r.pipelineBinds = append(r.pipelineBinds, pipeline.ID)
}

func (r *recordingSink) BindGlobalSet(layout, set ResourceRef) {
	r.globalBinds = append(r.globalBinds, set.ID)
}

func (r *recordingSink) BindMaterialSet(layout, set ResourceRef) {
	r.materialBinds = append(r.materialBinds, set.ID)
}

func (r *recordingSink) BindIndexBuffer(buffer ResourceRef) {
	r.indexBinds = append(r.indexBinds, buffer.ID)
}

func (r *recordingSink) BindVertexBuffer(buffer ResourceRef) {
	r.vertexBinds = append(r.vertexBinds, buffer.ID)
}

func (r *recordingSink) DrawIndexed(indexCount, firstIndex uint32, transform mgl32.Mat4) {
	r.draws = append(r.draws, transform)
}

func testMaterial(pipeline *MaterialPipeline, setID uint64, mode AlphaMode) *MaterialInstance {
	return &MaterialInstance{
		Pipeline:    pipeline,
		MaterialSet: ResourceRef{ID: setID},
		Mode:        mode,
	}
}

func opaqueObject(material *MaterialInstance, indexBufferID uint64, position mgl32.Vec3) RenderObject {
	return RenderObject{
		IndexCount:   36,
		IndexBuffer:  ResourceRef{ID: indexBufferID},
		VertexBuffer: ResourceRef{ID: indexBufferID + 100},
		Material:     material,
		Bounds:       Bounds{Extents: mgl32.Vec3{1, 1, 1}},
		Transform:    mgl32.Translate3D(position.X(), position.Y(), position.Z()),
	}
}

func wideProjection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 1000)
}

func TestBuildDrawListCullsBothPasses(t *testing.T) {
	pipeline := &MaterialPipeline{
		Pipeline: ResourceRef{ID: 1},
		Layout:   ResourceRef{ID: 2},
	}
	opaque := testMaterial(pipeline, 10, AlphaModeOpaque)
	blend := testMaterial(pipeline, 11, AlphaModeBlend)

	var ctx DrawContext
	ctx.Append(opaqueObject(opaque, 1, mgl32.Vec3{0, 0, -5}))
	ctx.Append(opaqueObject(opaque, 1, mgl32.Vec3{0, 0, 50})) // behind camera
	ctx.Append(opaqueObject(blend, 2, mgl32.Vec3{1, 0, -5}))
	ctx.Append(opaqueObject(blend, 2, mgl32.Vec3{0, 0, 50})) // behind camera

	var frustum Frustum
	list := BuildDrawList(&ctx, mgl32.Ident4(), wideProjection(), mgl32.Vec3{}, &frustum)

	assert.Len(t, list.Opaque, 1)
	assert.Len(t, list.Transparent, 1)
	assert.Equal(t, 2, list.Culled)
}

func TestBuildDrawListSortsOpaqueByState(t *testing.T) {
	pipelineA := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 100}}
	pipelineB := &MaterialPipeline{Pipeline: ResourceRef{ID: 2}, Layout: ResourceRef{ID: 100}}

	matA1 := testMaterial(pipelineA, 10, AlphaModeOpaque)
	matA2 := testMaterial(pipelineA, 11, AlphaModeOpaque)
	matB := testMaterial(pipelineB, 12, AlphaModeOpaque)

	var ctx DrawContext
	ctx.Append(opaqueObject(matB, 3, mgl32.Vec3{0, 0, -5}))
	ctx.Append(opaqueObject(matA2, 2, mgl32.Vec3{1, 0, -5}))
	ctx.Append(opaqueObject(matA1, 1, mgl32.Vec3{2, 0, -5}))
	ctx.Append(opaqueObject(matA1, 2, mgl32.Vec3{3, 0, -5}))

	var frustum Frustum
	list := BuildDrawList(&ctx, mgl32.Ident4(), wideProjection(), mgl32.Vec3{}, &frustum)
	require.Len(t, list.Opaque, 4)

	// Pipeline A first, its sets in order, index buffers in order
	// within a set; pipeline B last.
	assert.Equal(t, uint64(10), list.Opaque[0].Material.MaterialSet.ID)
	assert.Equal(t, uint64(1), list.Opaque[0].IndexBuffer.ID)
	assert.Equal(t, uint64(10), list.Opaque[1].Material.MaterialSet.ID)
	assert.Equal(t, uint64(2), list.Opaque[1].IndexBuffer.ID)
	assert.Equal(t, uint64(11), list.Opaque[2].Material.MaterialSet.ID)
	assert.Equal(t, uint64(12), list.Opaque[3].Material.MaterialSet.ID)
}

func TestBuildDrawListOpaqueSortPreservesInputOrderOnTies(t *testing.T) {
	pipeline := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 100}}
	mat := testMaterial(pipeline, 10, AlphaModeOpaque)

	// Five objects with identical pipeline, material set and index
	// buffer; FirstIndex marks the submission order.
	var ctx DrawContext
	for i := 0; i < 5; i++ {
		obj := opaqueObject(mat, 1, mgl32.Vec3{float32(i), 0, -5})
		obj.FirstIndex = uint32(i)
		ctx.Append(obj)
	}

	var frustum Frustum
	list := BuildDrawList(&ctx, mgl32.Ident4(), wideProjection(), mgl32.Vec3{}, &frustum)
	require.Len(t, list.Opaque, 5)

	for i, obj := range list.Opaque {
		assert.Equal(t, uint32(i), obj.FirstIndex)
	}
}

func TestBuildDrawListSortsTransparentBackToFront(t *testing.T) {
	pipeline := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 2}}
	blend := testMaterial(pipeline, 10, AlphaModeBlend)

	var ctx DrawContext
	ctx.Append(opaqueObject(blend, 1, mgl32.Vec3{0, 0, -5}))
	ctx.Append(opaqueObject(blend, 1, mgl32.Vec3{0, 0, -20}))
	ctx.Append(opaqueObject(blend, 1, mgl32.Vec3{0, 0, -10}))

	cameraPos := mgl32.Vec3{0, 0, 0}
	var frustum Frustum
	list := BuildDrawList(&ctx, mgl32.Ident4(), wideProjection(), cameraPos, &frustum)
	require.Len(t, list.Transparent, 3)

	assert.Equal(t, float32(-20), list.Transparent[0].Transform.At(2, 3))
	assert.Equal(t, float32(-10), list.Transparent[1].Transform.At(2, 3))
	assert.Equal(t, float32(-5), list.Transparent[2].Transform.At(2, 3))
}

func TestEmitElidesRedundantBinds(t *testing.T) {
	pipelineA := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 100}}
	pipelineB := &MaterialPipeline{Pipeline: ResourceRef{ID: 2}, Layout: ResourceRef{ID: 100}}

	matA1 := testMaterial(pipelineA, 10, AlphaModeOpaque)
	matA2 := testMaterial(pipelineA, 11, AlphaModeOpaque)
	matB := testMaterial(pipelineB, 12, AlphaModeOpaque)

	list := DrawList{
		Opaque: []RenderObject{
			opaqueObject(matA1, 1, mgl32.Vec3{}),
			opaqueObject(matA1, 1, mgl32.Vec3{1, 0, 0}),
			opaqueObject(matA2, 1, mgl32.Vec3{2, 0, 0}),
			opaqueObject(matB, 2, mgl32.Vec3{3, 0, 0}),
		},
	}

	sink := &recordingSink{}
	globalSet := ResourceRef{ID: 500}
	stats := Emit(sink, globalSet, &list)

	assert.Equal(t, 4, stats.DrawCalls)
	assert.Equal(t, 4*36/3, stats.Triangles)

	// Two pipelines, three distinct material sets, two index buffers.
	assert.Equal(t, []uint64{1, 2}, sink.pipelineBinds)
	assert.Equal(t, []uint64{10, 11, 12}, sink.materialBinds)
	assert.Equal(t, []uint64{1, 2}, sink.indexBinds)
	assert.Len(t, sink.draws, 4)
}

func TestEmitRebindsGlobalSetPerLayout(t *testing.T) {
	layoutA := &MaterialPipeline{Pipeline: ResourceRef{ID: 1}, Layout: ResourceRef{ID: 100}}
	layoutB := &MaterialPipeline{Pipeline: ResourceRef{ID: 2}, Layout: ResourceRef{ID: 200}}

	list := DrawList{
		Opaque: []RenderObject{
			opaqueObject(testMaterial(layoutA, 10, AlphaModeOpaque), 1, mgl32.Vec3{}),
			opaqueObject(testMaterial(layoutB, 11, AlphaModeOpaque), 1, mgl32.Vec3{1, 0, 0}),
		},
	}

	sink := &recordingSink{}
	Emit(sink, ResourceRef{ID: 500}, &list)

	// The layout change forces the global set to be bound again.
	assert.Equal(t, []uint64{500, 500}, sink.globalBinds)
}

func TestEmitReportsCulledCount(t *testing.T) {
	sink := &recordingSink{}
	list := DrawList{Culled: 7}
	stats := Emit(sink, ResourceRef{ID: 1}, &list)

	assert.Equal(t, 7, stats.CulledObjects)
	assert.Zero(t, stats.DrawCalls)
}
