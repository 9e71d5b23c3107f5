package vulkan

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

// UploadMeshBuffers stages index and vertex data into device local
// buffers. The returned refs carry the buffers for recording and for
// deferred release.
func (vr *VulkanRenderer) UploadMeshBuffers(indices []uint32, vertices []scene.Vertex) (*scene.GPUMeshBuffers, error) {
	if len(indices) == 0 || len(vertices) == 0 {
		err := fmt.Errorf("cannot upload an empty mesh")
		core.LogError(err.Error())
		return nil, err
	}

	indexBuffer, err := BufferUploadDeviceLocal(vr.context, indexBytes(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		return nil, err
	}
	vertexBuffer, err := BufferUploadDeviceLocal(vr.context, vertexBytes(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		indexBuffer.BufferDestroy(vr.context)
		return nil, err
	}

	return &scene.GPUMeshBuffers{
		IndexBuffer:  scene.ResourceRef{ID: core.AcquireResourceID(), Native: indexBuffer},
		VertexBuffer: scene.ResourceRef{ID: core.AcquireResourceID(), Native: vertexBuffer},
	}, nil
}

// ReleaseMeshBuffers queues the mesh's buffers on the current frame
// slot so in-flight work finishes before they go away.
func (vr *VulkanRenderer) ReleaseMeshBuffers(buffers *scene.GPUMeshBuffers) {
	if buffers == nil {
		return
	}
	vr.ScheduleBufferRelease(buffers.IndexBuffer)
	vr.ScheduleBufferRelease(buffers.VertexBuffer)
}

// CreateTexture uploads RGBA8 pixel data into a sampled image, with a
// full mip chain when asked. The image ends in shader read layout.
func (vr *VulkanRenderer) CreateTexture(width, height uint32, pixels []byte, mipmapped bool) (*VulkanImage, error) {
	expected := int(width) * int(height) * 4
	if len(pixels) != expected {
		err := fmt.Errorf("texture data is %d bytes, want %d for %dx%d rgba", len(pixels), expected, width, height)
		core.LogError(err.Error())
		return nil, err
	}

	mipLevels := uint32(1)
	usage := vk.ImageUsageFlags(vk.ImageUsageSampledBit) | vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	if mipmapped {
		mipLevels = MipLevelsFor(width, height)
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}

	image, err := ImageCreate(
		vr.context,
		vk.ImageType2d,
		width,
		height,
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		mipLevels,
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	staging, err := BufferCreate(
		vr.context,
		vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		image.ImageDestroy(vr.context)
		return nil, err
	}
	defer staging.BufferDestroy(vr.context)

	if err := staging.BufferLoadData(pixels); err != nil {
		image.ImageDestroy(vr.context)
		return nil, err
	}

	cb, err := AllocateAndBeginSingleUse(vr.context, vr.context.Device.GraphicsCommandPool)
	if err != nil {
		image.ImageDestroy(vr.context)
		return nil, err
	}

	ImageTransitionLayout(cb, image.Handle, vk.ImageAspectFlags(vk.ImageAspectColorBit), mipLevels, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	image.ImageCopyFromBuffer(cb, staging.Handle)
	if mipmapped {
		image.ImageGenerateMipmaps(cb)
	} else {
		ImageTransitionLayout(cb, image.Handle, vk.ImageAspectFlags(vk.ImageAspectColorBit), mipLevels, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	}

	if err := cb.EndSingleUse(vr.context, vr.context.Device.GraphicsCommandPool, vr.context.Device.GraphicsQueue); err != nil {
		image.ImageDestroy(vr.context)
		return nil, err
	}

	return image, nil
}

// CreateSampler builds a sampler with the given filter for both min
// and mag, repeat addressing and the full mip range.
func (vr *VulkanRenderer) CreateSampler(filter vk.Filter) (vk.Sampler, error) {
	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: vk.SamplerAddressModeRepeat,
		AddressModeV: vk.SamplerAddressModeRepeat,
		AddressModeW: vk.SamplerAddressModeRepeat,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		MaxLod:       vk.LodClampNone,
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(vr.context.Device.LogicalDevice, &samplerCreateInfo, vr.context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("vkCreateSampler failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullSampler, err
	}
	return sampler, nil
}

// CreateMaterial writes a material instance against the renderer's
// long-lived descriptor allocator. Nil images fall back to the white
// default, a nil sampler to the linear one.
func (vr *VulkanRenderer) CreateMaterial(mode scene.AlphaMode, resources VulkanMaterialResources) (*scene.MaterialInstance, error) {
	if resources.ColorImage == nil {
		resources.ColorImage = vr.WhiteImage
	}
	if resources.ColorSampler == nil {
		resources.ColorSampler = vr.DefaultSamplerLinear
	}
	return vr.Materials.WriteMaterial(mode, resources, vr.globalDescriptors)
}

// CreateColorMaterial builds an untextured material from its factor
// vectors, using the white default texture. This is the constructor
// the asset layer drives; it never needs to know about descriptor
// sets or samplers.
func (vr *VulkanRenderer) CreateColorMaterial(mode scene.AlphaMode, colorFactors, metalRoughFactors mgl32.Vec4) (*scene.MaterialInstance, error) {
	return vr.CreateMaterial(mode, VulkanMaterialResources{
		Constants: VulkanMaterialConstants{
			ColorFactors:      colorFactors,
			MetalRoughFactors: metalRoughFactors,
		},
	})
}

// DefaultMaterialInstance is the plain white opaque fallback material.
func (vr *VulkanRenderer) DefaultMaterialInstance() *scene.MaterialInstance {
	return vr.DefaultMaterial
}

// packColor converts a normalized color to one RGBA8 texel.
func packColor(c mgl32.Vec4) [4]byte {
	clamp01 := func(v float32) float32 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return [4]byte{
		byte(clamp01(c[0]) * 255),
		byte(clamp01(c[1]) * 255),
		byte(clamp01(c[2]) * 255),
		byte(clamp01(c[3]) * 255),
	}
}

// solidPixels fills a width x height RGBA8 buffer with one color.
func solidPixels(width, height uint32, color mgl32.Vec4) []byte {
	texel := packColor(color)
	pixels := make([]byte, width*height*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:i+4], texel[:])
	}
	return pixels
}

// checkerPixels builds the classic magenta and black missing-texture
// pattern.
func checkerPixels(size uint32) []byte {
	magenta := packColor(mgl32.Vec4{1, 0, 1, 1})
	black := packColor(mgl32.Vec4{0, 0, 0, 1})
	pixels := make([]byte, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			texel := black
			if (x+y)%2 == 0 {
				texel = magenta
			}
			offset := (y*size + x) * 4
			copy(pixels[offset:offset+4], texel[:])
		}
	}
	return pixels
}

// createDefaultResources builds the fallback textures, samplers and the
// default material everything can render with before any asset loads.
func (vr *VulkanRenderer) createDefaultResources() error {
	white, err := vr.CreateTexture(1, 1, solidPixels(1, 1, mgl32.Vec4{1, 1, 1, 1}), false)
	if err != nil {
		return err
	}
	vr.WhiteImage = white
	vr.globalDeletions.Push(releaseImageEntry(white))

	checker, err := vr.CreateTexture(16, 16, checkerPixels(16), false)
	if err != nil {
		return err
	}
	vr.ErrorImage = checker
	vr.globalDeletions.Push(releaseImageEntry(checker))

	linear, err := vr.CreateSampler(vk.FilterLinear)
	if err != nil {
		return err
	}
	vr.DefaultSamplerLinear = linear
	vr.globalDeletions.Push(releaseSamplerEntry(linear))

	nearest, err := vr.CreateSampler(vk.FilterNearest)
	if err != nil {
		return err
	}
	vr.DefaultSamplerNearest = nearest
	vr.globalDeletions.Push(releaseSamplerEntry(nearest))

	defaultMaterial, err := vr.Materials.WriteMaterial(scene.AlphaModeOpaque, VulkanMaterialResources{
		Constants: VulkanMaterialConstants{
			ColorFactors:      mgl32.Vec4{1, 1, 1, 1},
			MetalRoughFactors: mgl32.Vec4{1, 0.5, 0, 0},
		},
		ColorImage:   white,
		ColorSampler: linear,
	}, vr.globalDescriptors)
	if err != nil {
		return err
	}
	vr.DefaultMaterial = defaultMaterial

	core.LogDebug("Default textures, samplers and material ready.")
	return nil
}
