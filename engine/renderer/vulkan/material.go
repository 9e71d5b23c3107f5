package vulkan

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

// VulkanMaterialConstants is the per-material uniform block, binding 0
// of the material set.
type VulkanMaterialConstants struct {
	ColorFactors      mgl32.Vec4
	MetalRoughFactors mgl32.Vec4
}

// VulkanMaterialResources names everything a material instance binds.
type VulkanMaterialResources struct {
	Constants    VulkanMaterialConstants
	ColorImage   *VulkanImage
	ColorSampler vk.Sampler
}

// VulkanMaterialSystem owns the two mesh pipelines (opaque and
// transparent) and writes material descriptor sets against them. Both
// pipelines share the same layout: set 0 scene data, set 1 material.
type VulkanMaterialSystem struct {
	context *VulkanContext

	MaterialLayout vk.DescriptorSetLayout

	opaquePipeline      *VulkanPipeline
	transparentPipeline *VulkanPipeline

	// Shared pipeline descriptors handed to material instances; the
	// emitter sorts and elides rebinds by their IDs.
	opaqueRef      *scene.MaterialPipeline
	transparentRef *scene.MaterialPipeline

	// Constant buffers owned per written material, retired with the
	// system.
	constantBuffers []*VulkanBuffer
}

// vertexAttributes describes scene.Vertex for the fixed-function input
// assembler: position, uv.x, normal, uv.y, color.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32Sfloat, Offset: 12},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 16},
		{Location: 3, Binding: 0, Format: vk.FormatR32Sfloat, Offset: 28},
		{Location: 4, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 32},
	}
}

func NewVulkanMaterialSystem(context *VulkanContext, renderpass *VulkanRenderpass, sceneDataLayout vk.DescriptorSetLayout, shaderDir string) (*VulkanMaterialSystem, error) {
	ms := &VulkanMaterialSystem{context: context}

	layoutBuilder := &VulkanDescriptorLayoutBuilder{}
	layoutBuilder.
		AddBinding(0, vk.DescriptorTypeUniformBuffer).
		AddBinding(1, vk.DescriptorTypeCombinedImageSampler)
	materialLayout, err := layoutBuilder.Build(context, vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit))
	if err != nil {
		return nil, err
	}
	ms.MaterialLayout = materialLayout

	vertModule, err := LoadShaderModule(context, filepath.Join(shaderDir, "mesh.vert.spv"))
	if err != nil {
		return nil, err
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, vertModule, context.Allocator)

	fragModule, err := LoadShaderModule(context, filepath.Join(shaderDir, "mesh.frag.spv"))
	if err != nil {
		return nil, err
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, fragModule, context.Allocator)

	stages := []vk.PipelineShaderStageCreateInfo{
		ShaderStageInfo(vertModule, vk.ShaderStageVertexBit),
		ShaderStageInfo(fragModule, vk.ShaderStageFragmentBit),
	}
	setLayouts := []vk.DescriptorSetLayout{sceneDataLayout, materialLayout}

	config := &VulkanPipelineConfig{
		Renderpass:           renderpass,
		Stride:               uint32(unsafe.Sizeof(scene.Vertex{})),
		Attributes:           vertexAttributes(),
		DescriptorSetLayouts: setLayouts,
		Stages:               stages,
		CullMode:             vk.CullModeBackBit,
		DepthTest:            true,
		DepthWrite:           true,
		Blend:                BlendNone,
		PushConstantSize:     uint32(unsafe.Sizeof(mgl32.Mat4{})),
		PushConstantStages:   vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}
	opaque, err := NewGraphicsPipeline(context, config)
	if err != nil {
		return nil, err
	}
	ms.opaquePipeline = opaque

	// The transparent variant reads depth but never writes it, and
	// blends over whatever the opaque pass produced.
	config.DepthWrite = false
	config.Blend = BlendAlpha
	transparent, err := NewGraphicsPipeline(context, config)
	if err != nil {
		opaque.Destroy(context)
		return nil, err
	}
	ms.transparentPipeline = transparent

	ms.opaqueRef = &scene.MaterialPipeline{
		Pipeline: scene.ResourceRef{ID: core.AcquireResourceID(), Native: opaque.Handle},
		Layout:   scene.ResourceRef{ID: core.AcquireResourceID(), Native: opaque.PipelineLayout},
	}
	ms.transparentRef = &scene.MaterialPipeline{
		Pipeline: scene.ResourceRef{ID: core.AcquireResourceID(), Native: transparent.Handle},
		Layout:   scene.ResourceRef{ID: core.AcquireResourceID(), Native: transparent.PipelineLayout},
	}

	core.LogInfo("Material system initialized.")
	return ms, nil
}

// WriteMaterial allocates a material descriptor set from the given
// allocator and fills it. The returned instance is immutable; callers
// share it by pointer across surfaces. The material's constant buffer
// lives as long as the system.
func (ms *VulkanMaterialSystem) WriteMaterial(mode scene.AlphaMode, resources VulkanMaterialResources, allocator *VulkanDescriptorAllocator) (*scene.MaterialInstance, error) {
	instance, constantBuffer, err := ms.WriteMaterialTo(mode, resources, allocator)
	if err != nil {
		return nil, err
	}
	ms.constantBuffers = append(ms.constantBuffers, constantBuffer)
	return instance, nil
}

// WriteMaterialTo is WriteMaterial for materials with a shorter
// lifetime than the system's: the caller receives the constant buffer
// and owns its release.
func (ms *VulkanMaterialSystem) WriteMaterialTo(mode scene.AlphaMode, resources VulkanMaterialResources, allocator *VulkanDescriptorAllocator) (*scene.MaterialInstance, *VulkanBuffer, error) {
	set, err := allocator.Allocate(ms.MaterialLayout)
	if err != nil {
		return nil, nil, fmt.Errorf("allocating material set: %w", err)
	}

	constantBuffer, err := BufferCreate(
		ms.context,
		vk.DeviceSize(unsafe.Sizeof(resources.Constants)),
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, nil, err
	}
	constants := resources.Constants
	data := unsafe.Slice((*byte)(unsafe.Pointer(&constants)), unsafe.Sizeof(constants))
	if err := constantBuffer.BufferLoadData(data); err != nil {
		constantBuffer.BufferDestroy(ms.context)
		return nil, nil, err
	}

	writer := &VulkanDescriptorWriter{}
	writer.
		WriteBuffer(0, constantBuffer.Handle, vk.DeviceSize(unsafe.Sizeof(constants)), 0, vk.DescriptorTypeUniformBuffer).
		WriteImage(1, resources.ColorImage.View, resources.ColorSampler, vk.ImageLayoutShaderReadOnlyOptimal, vk.DescriptorTypeCombinedImageSampler)
	writer.UpdateSet(ms.context, set)

	pipeline := ms.opaqueRef
	if mode == scene.AlphaModeBlend {
		pipeline = ms.transparentRef
	}

	return &scene.MaterialInstance{
		Pipeline:    pipeline,
		MaterialSet: scene.ResourceRef{ID: core.AcquireResourceID(), Native: set},
		Mode:        mode,
	}, constantBuffer, nil
}

func (ms *VulkanMaterialSystem) Destroy() {
	for _, buffer := range ms.constantBuffers {
		buffer.BufferDestroy(ms.context)
	}
	ms.constantBuffers = nil

	if ms.transparentPipeline != nil {
		ms.transparentPipeline.Destroy(ms.context)
		ms.transparentPipeline = nil
	}
	if ms.opaquePipeline != nil {
		ms.opaquePipeline.Destroy(ms.context)
		ms.opaquePipeline = nil
	}
	if ms.MaterialLayout != nil {
		vk.DestroyDescriptorSetLayout(ms.context.Device.LogicalDevice, ms.MaterialLayout, ms.context.Allocator)
		ms.MaterialLayout = nil
	}
}
