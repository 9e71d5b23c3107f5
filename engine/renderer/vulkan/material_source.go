package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/renderer/descriptors"
	"github.com/vireo3d/vireo/engine/scene"
)

// sceneMaterialInitialSets sizes the first pool of a scene's material
// pool-set. Scenes rarely carry more than a handful of materials, so
// the pool starts small and grows if needed.
const sceneMaterialInitialSets = 16

// materialRatios sizes scene material pools: one uniform buffer and
// one combined sampler per material set.
func materialRatios() []descriptors.PoolSizeRatio {
	return []descriptors.PoolSizeRatio{
		{Type: uint32(vk.DescriptorTypeUniformBuffer), Ratio: 1},
		{Type: uint32(vk.DescriptorTypeCombinedImageSampler), Ratio: 1},
	}
}

// VulkanMaterialSource writes materials against a descriptor pool-set
// owned by one loaded scene. Release defers the pool-set and the
// constant buffers through the frame deletion queue so sets still
// referenced by in-flight frames survive until their fence retires.
type VulkanMaterialSource struct {
	vr          *VulkanRenderer
	descriptors *VulkanDescriptorAllocator
	buffers     []*VulkanBuffer
}

var _ scene.MaterialSource = (*VulkanMaterialSource)(nil)

// NewMaterialSource creates a material factory with its own pool-set,
// independent of the global allocator.
func (vr *VulkanRenderer) NewMaterialSource() (scene.MaterialSource, error) {
	allocator, err := NewDescriptorAllocator(vr.context, sceneMaterialInitialSets, materialRatios(), vr.options.DescriptorMaxSetsPerPool)
	if err != nil {
		return nil, err
	}
	return &VulkanMaterialSource{vr: vr, descriptors: allocator}, nil
}

func (s *VulkanMaterialSource) CreateColorMaterial(mode scene.AlphaMode, colorFactors, metalRoughFactors mgl32.Vec4) (*scene.MaterialInstance, error) {
	instance, constantBuffer, err := s.vr.Materials.WriteMaterialTo(mode, VulkanMaterialResources{
		Constants: VulkanMaterialConstants{
			ColorFactors:      colorFactors,
			MetalRoughFactors: metalRoughFactors,
		},
		ColorImage:   s.vr.WhiteImage,
		ColorSampler: s.vr.DefaultSamplerLinear,
	}, s.descriptors)
	if err != nil {
		return nil, err
	}
	s.buffers = append(s.buffers, constantBuffer)
	return instance, nil
}

func (s *VulkanMaterialSource) Release() {
	if s.descriptors == nil {
		return
	}
	frame := s.vr.frames[s.vr.currentSlot]
	for _, buffer := range s.buffers {
		frame.Deletions.Push(releaseBufferEntry(buffer))
	}
	s.buffers = nil
	frame.Deletions.Push(releaseAllocatorEntry(s.descriptors))
	s.descriptors = nil
}
