package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawRecorder is the sink the draw list emits into. The Vulkan
// backend implements it over a command buffer; tests implement it with
// a plain recorder.
type DrawRecorder interface {
	BindPipeline(pipeline ResourceRef)
	// BindGlobalSet binds the per-frame set at slot 0 for a layout.
	BindGlobalSet(layout ResourceRef, set ResourceRef)
	// BindMaterialSet binds the material set at slot 1.
	BindMaterialSet(layout ResourceRef, set ResourceRef)
	BindIndexBuffer(buffer ResourceRef)
	BindVertexBuffer(buffer ResourceRef)
	DrawIndexed(indexCount, firstIndex uint32, transform mgl32.Mat4)
}

// DrawStats counts the work emitted for one frame.
type DrawStats struct {
	DrawCalls     int
	Triangles     int
	CulledObjects int
}

// DrawList holds the culled, sorted objects of one frame, ready for
// emission.
type DrawList struct {
	Opaque      []RenderObject
	Transparent []RenderObject
	Culled      int
}

// BuildDrawList culls the draw context against the view frustum and
// sorts the survivors: opaque objects by GPU state so emission rebinds
// as little as possible, transparent objects back to front so blending
// composes correctly.
func BuildDrawList(ctx *DrawContext, view, proj mgl32.Mat4, cameraPos mgl32.Vec3, frustum *Frustum) DrawList {
	planes := frustum.Planes(proj)

	var list DrawList
	for i := range ctx.Opaque {
		if InFrustum(planes, view, &ctx.Opaque[i]) {
			list.Opaque = append(list.Opaque, ctx.Opaque[i])
		} else {
			list.Culled++
		}
	}
	for i := range ctx.Transparent {
		if InFrustum(planes, view, &ctx.Transparent[i]) {
			list.Transparent = append(list.Transparent, ctx.Transparent[i])
		} else {
			list.Culled++
		}
	}

	// Opaque: group by pipeline, then material set, then index buffer.
	// The sort is stable so objects with identical state keep their
	// submission order.
	sort.SliceStable(list.Opaque, func(i, j int) bool {
		a, b := &list.Opaque[i], &list.Opaque[j]
		if a.Material.Pipeline.Pipeline.ID != b.Material.Pipeline.Pipeline.ID {
			return a.Material.Pipeline.Pipeline.ID < b.Material.Pipeline.Pipeline.ID
		}
		if a.Material.MaterialSet.ID != b.Material.MaterialSet.ID {
			return a.Material.MaterialSet.ID < b.Material.MaterialSet.ID
		}
		return a.IndexBuffer.ID < b.IndexBuffer.ID
	})

	// Transparent: farthest from the camera first.
	sort.SliceStable(list.Transparent, func(i, j int) bool {
		return viewDistanceSq(&list.Transparent[i], cameraPos) > viewDistanceSq(&list.Transparent[j], cameraPos)
	})

	return list
}

// viewDistanceSq measures from the object's world translation to the
// camera. Squared distance orders the same as distance.
func viewDistanceSq(obj *RenderObject, cameraPos mgl32.Vec3) float32 {
	translation := mgl32.Vec3{obj.Transform.At(0, 3), obj.Transform.At(1, 3), obj.Transform.At(2, 3)}
	diff := translation.Sub(cameraPos)
	return diff.Dot(diff)
}

// Emit replays the draw list into the recorder, rebinding state only
// when it changes: the pipeline when it differs from the previous draw,
// every set when the layout differs, the material set when only the set
// differs, and buffers when they differ.
func Emit(rec DrawRecorder, globalSet ResourceRef, list *DrawList) DrawStats {
	stats := DrawStats{CulledObjects: list.Culled}

	var lastPipeline *MaterialPipeline
	var lastMaterialSet uint64
	var lastIndexBuffer uint64
	var lastVertexBuffer uint64

	draw := func(obj *RenderObject) {
		mat := obj.Material
		if lastPipeline == nil || mat.Pipeline.Pipeline.ID != lastPipeline.Pipeline.ID {
			rec.BindPipeline(mat.Pipeline.Pipeline)
			if lastPipeline == nil || mat.Pipeline.Layout.ID != lastPipeline.Layout.ID {
				// A new layout invalidates everything bound so far.
				rec.BindGlobalSet(mat.Pipeline.Layout, globalSet)
				lastMaterialSet = 0
			}
			lastPipeline = mat.Pipeline
		}
		if mat.MaterialSet.ID != lastMaterialSet {
			rec.BindMaterialSet(mat.Pipeline.Layout, mat.MaterialSet)
			lastMaterialSet = mat.MaterialSet.ID
		}
		if obj.IndexBuffer.ID != lastIndexBuffer {
			rec.BindIndexBuffer(obj.IndexBuffer)
			lastIndexBuffer = obj.IndexBuffer.ID
		}
		if obj.VertexBuffer.ID != lastVertexBuffer {
			rec.BindVertexBuffer(obj.VertexBuffer)
			lastVertexBuffer = obj.VertexBuffer.ID
		}
		rec.DrawIndexed(obj.IndexCount, obj.FirstIndex, obj.Transform)
		stats.DrawCalls++
		stats.Triangles += int(obj.IndexCount) / 3
	}

	for i := range list.Opaque {
		draw(&list.Opaque[i])
	}
	for i := range list.Transparent {
		draw(&list.Transparent[i])
	}
	return stats
}
