package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/containers"
	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/renderer/descriptors"
)

// VulkanFrame is one in-flight frame slot: its command buffer, sync
// primitives, per-frame descriptor allocator and the deletion queue for
// resources retired while the slot's work was on the GPU.
type VulkanFrame struct {
	CommandBuffer *VulkanCommandBuffer

	ImageAvailableSemaphore vk.Semaphore
	RenderCompleteSemaphore vk.Semaphore
	InFlightFence           *VulkanFence

	Descriptors *VulkanDescriptorAllocator
	Deletions   *containers.DeletionQueue[releaseEntry]

	// SceneBuffer is a host visible uniform buffer rewritten every time
	// the slot is recorded.
	SceneBuffer *VulkanBuffer
}

func NewVulkanFrame(context *VulkanContext, sceneBufferSize vk.DeviceSize, initialSets uint32, ratios []descriptors.PoolSizeRatio, maxSetsPerPool uint32) (*VulkanFrame, error) {
	frame := &VulkanFrame{
		Deletions: containers.NewDeletionQueue[releaseEntry](),
	}

	commandBuffer, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	frame.CommandBuffer = commandBuffer

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var imageAvailable, renderComplete vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &imageAvailable); res != vk.Success {
		err := fmt.Errorf("vkCreateSemaphore failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	frame.ImageAvailableSemaphore = imageAvailable
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &renderComplete); res != vk.Success {
		err := fmt.Errorf("vkCreateSemaphore failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	frame.RenderCompleteSemaphore = renderComplete

	// Signaled so the first wait on this slot passes immediately.
	fence, err := NewFence(context, true)
	if err != nil {
		return nil, err
	}
	frame.InFlightFence = fence

	allocator, err := NewDescriptorAllocator(context, initialSets, ratios, maxSetsPerPool)
	if err != nil {
		return nil, err
	}
	frame.Descriptors = allocator

	sceneBuffer, err := BufferCreate(
		context,
		sceneBufferSize,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	frame.SceneBuffer = sceneBuffer

	return frame, nil
}

// Destroy releases the slot. The caller must have flushed the deletion
// queue (or be tearing the whole device down with it).
func (vf *VulkanFrame) Destroy(context *VulkanContext) {
	if vf.SceneBuffer != nil {
		vf.SceneBuffer.BufferDestroy(context)
		vf.SceneBuffer = nil
	}
	if vf.Descriptors != nil {
		vf.Descriptors.Destroy()
		vf.Descriptors = nil
	}
	if vf.InFlightFence != nil {
		vf.InFlightFence.FenceDestroy(context)
		vf.InFlightFence = nil
	}
	if vf.ImageAvailableSemaphore != nil {
		vk.DestroySemaphore(context.Device.LogicalDevice, vf.ImageAvailableSemaphore, context.Allocator)
		vf.ImageAvailableSemaphore = nil
	}
	if vf.RenderCompleteSemaphore != nil {
		vk.DestroySemaphore(context.Device.LogicalDevice, vf.RenderCompleteSemaphore, context.Allocator)
		vf.RenderCompleteSemaphore = nil
	}
	if vf.CommandBuffer != nil {
		vf.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
		vf.CommandBuffer = nil
	}
}
