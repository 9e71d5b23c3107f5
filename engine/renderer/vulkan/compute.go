package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
)

// VulkanComputePushConstants is the parameter block every background
// effect shader receives. The meaning of each vector is up to the
// shader; the gradient effect uses Data1 and Data2 as the top and
// bottom colors.
type VulkanComputePushConstants struct {
	Data1 mgl32.Vec4
	Data2 mgl32.Vec4
	Data3 mgl32.Vec4
	Data4 mgl32.Vec4
}

// VulkanComputeEffect is one background pass: a compute pipeline that
// writes the whole draw image before geometry renders over it.
type VulkanComputeEffect struct {
	Name     string
	Pipeline *VulkanPipeline
	Data     VulkanComputePushConstants
}

// NewComputeEffect compiles a background effect from a SPIR-V compute
// shader. The shader binds the draw image as a storage image at
// set 0, binding 0.
func NewComputeEffect(context *VulkanContext, name string, shaderPath string, drawImageLayout vk.DescriptorSetLayout) (*VulkanComputeEffect, error) {
	module, err := LoadShaderModule(context, shaderPath)
	if err != nil {
		return nil, err
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, module, context.Allocator)

	pipeline, err := NewComputePipeline(
		context,
		module,
		[]vk.DescriptorSetLayout{drawImageLayout},
		uint32(unsafe.Sizeof(VulkanComputePushConstants{})))
	if err != nil {
		return nil, err
	}

	core.LogInfo("Background effect '%s' ready.", name)
	return &VulkanComputeEffect{
		Name:     name,
		Pipeline: pipeline,
	}, nil
}

// Dispatch records the effect over a width x height draw image. The
// image must be in general layout with the set already written.
func (ce *VulkanComputeEffect) Dispatch(commandBuffer *VulkanCommandBuffer, set vk.DescriptorSet, width, height uint32) {
	ce.Pipeline.Bind(commandBuffer, vk.PipelineBindPointCompute)

	vk.CmdBindDescriptorSets(
		commandBuffer.Handle,
		vk.PipelineBindPointCompute,
		ce.Pipeline.PipelineLayout,
		0, 1, []vk.DescriptorSet{set},
		0, nil)

	data := ce.Data
	vk.CmdPushConstants(
		commandBuffer.Handle,
		ce.Pipeline.PipelineLayout,
		vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		0,
		uint32(unsafe.Sizeof(data)),
		unsafe.Pointer(&data))

	// Workgroups are 16x16, round up to cover the edges.
	groupsX := (width + 15) / 16
	groupsY := (height + 15) / 16
	vk.CmdDispatch(commandBuffer.Handle, groupsX, groupsY, 1)
}

func (ce *VulkanComputeEffect) Destroy(context *VulkanContext) {
	if ce.Pipeline != nil {
		ce.Pipeline.Destroy(context)
		ce.Pipeline = nil
	}
}
