package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/renderer/descriptors"
)

// VulkanDescriptorAllocator is the growable set allocator specialized
// to real device handles.
type VulkanDescriptorAllocator = descriptors.Allocator[vk.DescriptorPool, vk.DescriptorSetLayout, vk.DescriptorSet]

// NewDescriptorAllocator builds a growable allocator backed by the
// device owned by the context.
func NewDescriptorAllocator(context *VulkanContext, initialSets uint32, ratios []descriptors.PoolSizeRatio, maxSetsPerPool uint32) (*VulkanDescriptorAllocator, error) {
	return descriptors.NewAllocator[vk.DescriptorPool, vk.DescriptorSetLayout, vk.DescriptorSet](
		&descriptorBackend{context: context}, initialSets, ratios, maxSetsPerPool)
}

// descriptorBackend adapts the raw Vulkan descriptor pool calls to the
// allocator's port. Pool exhaustion is folded into core.ErrPoolExhausted
// so the allocator can tell recoverable failures from fatal ones.
type descriptorBackend struct {
	context *VulkanContext
}

func (b *descriptorBackend) CreatePool(maxSets uint32, ratios []descriptors.PoolSizeRatio) (vk.DescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(ratios))
	for _, ratio := range ratios {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(ratio.Type),
			DescriptorCount: uint32(ratio.Ratio * float32(maxSets)),
		})
	}

	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(b.context.Device.LogicalDevice, &poolCreateInfo, b.context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullDescriptorPool, err
	}
	return pool, nil
}

func (b *descriptorBackend) Allocate(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	sets := make([]vk.DescriptorSet, 1)
	res := vk.AllocateDescriptorSets(b.context.Device.LogicalDevice, &allocateInfo, &sets[0])
	switch res {
	case vk.Success:
		return sets[0], nil
	case vk.ErrorOutOfPoolMemory, vk.ErrorFragmentedPool:
		return vk.NullDescriptorSet, fmt.Errorf("%w: %s", core.ErrPoolExhausted, VulkanResultString(res))
	default:
		err := fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullDescriptorSet, err
	}
}

func (b *descriptorBackend) ResetPool(pool vk.DescriptorPool) error {
	if res := vk.ResetDescriptorPool(b.context.Device.LogicalDevice, pool, 0); res != vk.Success {
		err := fmt.Errorf("vkResetDescriptorPool failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (b *descriptorBackend) DestroyPool(pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(b.context.Device.LogicalDevice, pool, b.context.Allocator)
}

// VulkanDescriptorLayoutBuilder accumulates bindings for a set layout.
type VulkanDescriptorLayoutBuilder struct {
	bindings []vk.DescriptorSetLayoutBinding
}

func (b *VulkanDescriptorLayoutBuilder) AddBinding(binding uint32, descriptorType vk.DescriptorType) *VulkanDescriptorLayoutBuilder {
	b.bindings = append(b.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: 1,
	})
	return b
}

func (b *VulkanDescriptorLayoutBuilder) Clear() {
	b.bindings = b.bindings[:0]
}

func (b *VulkanDescriptorLayoutBuilder) Build(context *VulkanContext, stages vk.ShaderStageFlags) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(b.bindings))
	copy(bindings, b.bindings)
	for i := range bindings {
		bindings[i].StageFlags = stages
	}

	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullDescriptorSetLayout, err
	}
	return layout, nil
}

// VulkanDescriptorWriter batches descriptor writes for one set.
type VulkanDescriptorWriter struct {
	writes []vk.WriteDescriptorSet
}

func (w *VulkanDescriptorWriter) WriteBuffer(binding uint32, buffer vk.Buffer, size, offset vk.DeviceSize, descriptorType vk.DescriptorType) *VulkanDescriptorWriter {
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer,
			Offset: offset,
			Range:  size,
		}},
	})
	return w
}

func (w *VulkanDescriptorWriter) WriteImage(binding uint32, view vk.ImageView, sampler vk.Sampler, layout vk.ImageLayout, descriptorType vk.DescriptorType) *VulkanDescriptorWriter {
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  descriptorType,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: layout,
		}},
	})
	return w
}

func (w *VulkanDescriptorWriter) Clear() {
	w.writes = w.writes[:0]
}

func (w *VulkanDescriptorWriter) UpdateSet(context *VulkanContext, set vk.DescriptorSet) {
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(w.writes)), w.writes, 0, nil)
}
