// Package scene holds the renderer-facing scene data model: meshes,
// materials, the node graph and the per-frame draw context. Everything
// here is GPU-agnostic; backend handles are carried as opaque
// ResourceRef values so the package can be exercised without a device.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AlphaMode selects which pass a surface is drawn in.
type AlphaMode uint8

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

// ResourceRef is an opaque reference to a backend resource. ID is a
// process-unique identity used for sorting and rebind elision; Native
// holds the backend handle and is never inspected here.
type ResourceRef struct {
	ID     uint64
	Native interface{}
}

// IsZero reports whether the reference points at nothing.
func (r ResourceRef) IsZero() bool {
	return r.ID == 0
}

// Vertex is the interleaved layout shared by every mesh the engine
// uploads. UV components are split around the normal to keep the
// struct tightly packed for the GPU.
type Vertex struct {
	Position mgl32.Vec3
	UVx      float32
	Normal   mgl32.Vec3
	UVy      float32
	Color    mgl32.Vec4
}

// Bounds is an object-space axis-aligned box described by its center
// and half-extents.
type Bounds struct {
	Origin  mgl32.Vec3
	Extents mgl32.Vec3
}

// MaterialPipeline pairs a compiled pipeline with its layout. Shared by
// every material instance built from the same effect.
type MaterialPipeline struct {
	Pipeline ResourceRef
	Layout   ResourceRef
}

// MaterialInstance binds a pipeline to a descriptor set holding the
// material's resources. Instances are immutable once built and shared
// by reference between surfaces.
type MaterialInstance struct {
	Pipeline    *MaterialPipeline
	MaterialSet ResourceRef
	Mode        AlphaMode
}

// MaterialSource creates material instances against a descriptor
// pool-set scoped to one owner, typically a loaded scene. Release
// schedules the pool-set and the materials' constant buffers for
// destruction once in-flight frames retire.
type MaterialSource interface {
	CreateColorMaterial(mode AlphaMode, colorFactors, metalRoughFactors mgl32.Vec4) (*MaterialInstance, error)
	Release()
}

// GPUMeshBuffers is the uploaded geometry for one mesh.
type GPUMeshBuffers struct {
	IndexBuffer  ResourceRef
	VertexBuffer ResourceRef
}

// GeoSurface is one draw range of a mesh with a single material.
type GeoSurface struct {
	StartIndex uint32
	Count      uint32
	Bounds     Bounds
	Material   *MaterialInstance
}

// MeshAsset is a named mesh split into surfaces by material.
type MeshAsset struct {
	Name     string
	Surfaces []GeoSurface
	Buffers  *GPUMeshBuffers
}

// RenderObject is one flattened, self-contained draw: everything the
// recorder needs without chasing the scene graph again.
type RenderObject struct {
	IndexCount uint32
	FirstIndex uint32

	IndexBuffer  ResourceRef
	VertexBuffer ResourceRef

	Material *MaterialInstance

	Bounds    Bounds
	Transform mgl32.Mat4
}

// DrawContext collects the flattened objects of one frame, split by
// pass. It is rebuilt from scratch every frame.
type DrawContext struct {
	Opaque      []RenderObject
	Transparent []RenderObject
}

// Reset empties both lists while keeping their capacity.
func (dc *DrawContext) Reset() {
	dc.Opaque = dc.Opaque[:0]
	dc.Transparent = dc.Transparent[:0]
}

// Append routes a render object into the pass its material requires.
func (dc *DrawContext) Append(obj RenderObject) {
	if obj.Material != nil && obj.Material.Mode == AlphaModeBlend {
		dc.Transparent = append(dc.Transparent, obj)
		return
	}
	dc.Opaque = append(dc.Opaque, obj)
}
