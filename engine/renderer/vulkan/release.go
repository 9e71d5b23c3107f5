package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
)

// releaseKind tags what a deferred deletion entry holds. Tagged
// entries instead of closures keep the queues inspectable and cheap.
type releaseKind uint8

const (
	releaseNone releaseKind = iota
	releaseBuffer
	releaseImage
	releaseSampler
	releaseDescriptorSetLayout
	releasePipeline
	releaseDescriptorAllocator
)

// releaseEntry is one deferred destruction. Only the fields matching
// the kind are set.
type releaseEntry struct {
	kind releaseKind

	buffer    *VulkanBuffer
	image     *VulkanImage
	sampler   vk.Sampler
	layout    vk.DescriptorSetLayout
	pipeline  *VulkanPipeline
	allocator *VulkanDescriptorAllocator
}

func releaseBufferEntry(buffer *VulkanBuffer) releaseEntry {
	return releaseEntry{kind: releaseBuffer, buffer: buffer}
}

func releaseImageEntry(image *VulkanImage) releaseEntry {
	return releaseEntry{kind: releaseImage, image: image}
}

func releaseSamplerEntry(sampler vk.Sampler) releaseEntry {
	return releaseEntry{kind: releaseSampler, sampler: sampler}
}

func releaseLayoutEntry(layout vk.DescriptorSetLayout) releaseEntry {
	return releaseEntry{kind: releaseDescriptorSetLayout, layout: layout}
}

func releasePipelineEntry(pipeline *VulkanPipeline) releaseEntry {
	return releaseEntry{kind: releasePipeline, pipeline: pipeline}
}

func releaseAllocatorEntry(allocator *VulkanDescriptorAllocator) releaseEntry {
	return releaseEntry{kind: releaseDescriptorAllocator, allocator: allocator}
}

// release destroys the resource an entry carries. Used as the flush
// callback of the per-frame and global deletion queues; the queues
// flush newest first, so dependents go before their dependencies.
func (vr *VulkanRenderer) release(entry releaseEntry) {
	switch entry.kind {
	case releaseBuffer:
		entry.buffer.BufferDestroy(vr.context)
	case releaseImage:
		entry.image.ImageDestroy(vr.context)
	case releaseSampler:
		vk.DestroySampler(vr.context.Device.LogicalDevice, entry.sampler, vr.context.Allocator)
	case releaseDescriptorSetLayout:
		vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, entry.layout, vr.context.Allocator)
	case releasePipeline:
		entry.pipeline.Destroy(vr.context)
	case releaseDescriptorAllocator:
		entry.allocator.Destroy()
	case releaseNone:
	default:
		core.LogWarn("Unknown release entry kind %d, leaking resource.", entry.kind)
	}
}
