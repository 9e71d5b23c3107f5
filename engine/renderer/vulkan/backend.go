// Package vulkan is the device backend: it owns the instance, device,
// swapchain and frame slots, and records the per-frame command stream
// the frontend orchestrates.
package vulkan

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/containers"
	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/platform"
	"github.com/vireo3d/vireo/engine/renderer"
	"github.com/vireo3d/vireo/engine/renderer/descriptors"
	"github.com/vireo3d/vireo/engine/scene"
)

// acquireTimeoutNs bounds the swapchain image acquire.
const acquireTimeoutNs = uint64(time.Second)

// RendererOptions configures the backend at startup.
type RendererOptions struct {
	FramesInFlight           int
	RenderScale              float32
	DescriptorInitialSets    uint32
	DescriptorMaxSetsPerPool uint32
	ShaderDir                string
	Debug                    bool
}

// VulkanSceneData is the per-frame uniform block at set 0, binding 0.
type VulkanSceneData struct {
	View              mgl32.Mat4
	Projection        mgl32.Mat4
	ViewProjection    mgl32.Mat4
	AmbientColor      mgl32.Vec4
	SunlightDirection mgl32.Vec4
	SunlightColor     mgl32.Vec4
}

// VulkanRenderer implements the frontend's FrameBackend and the scene
// package's DrawRecorder over one logical device.
type VulkanRenderer struct {
	platform *platform.Platform
	options  RendererOptions
	context  *VulkanContext

	frames []*VulkanFrame

	// Resources that live for the whole renderer, flushed at shutdown.
	globalDeletions   *containers.DeletionQueue[releaseEntry]
	globalDescriptors *VulkanDescriptorAllocator

	// Off-screen render targets. Geometry draws here at render scale,
	// the result is blitted to the swapchain.
	drawImage       *VulkanImage
	depthImage      *VulkanImage
	drawFramebuffer *VulkanFramebuffer
	drawExtent      vk.Extent2D

	sceneDataLayout vk.DescriptorSetLayout
	drawImageLayout vk.DescriptorSetLayout

	Background *VulkanComputeEffect
	Materials  *VulkanMaterialSystem

	DefaultSamplerLinear  vk.Sampler
	DefaultSamplerNearest vk.Sampler
	WhiteImage            *VulkanImage
	ErrorImage            *VulkanImage
	DefaultMaterial       *scene.MaterialInstance

	frustum scene.Frustum

	// Recording state, valid only inside Record.
	activeCommandBuffer *VulkanCommandBuffer
	activeLayout        vk.PipelineLayout
	currentSlot         int
}

// The backend must satisfy the frontend port and the draw emitter.
var _ renderer.FrameBackend = (*VulkanRenderer)(nil)
var _ scene.DrawRecorder = (*VulkanRenderer)(nil)

func New(p *platform.Platform, options RendererOptions) *VulkanRenderer {
	if options.FramesInFlight <= 0 {
		options.FramesInFlight = renderer.DefaultFramesInFlight
	}
	if options.RenderScale <= 0 || options.RenderScale > 1 {
		options.RenderScale = 1
	}
	if options.DescriptorInitialSets == 0 {
		options.DescriptorInitialSets = 1000
	}
	return &VulkanRenderer{
		platform:        p,
		options:         options,
		context:         &VulkanContext{},
		globalDeletions: containers.NewDeletionQueue[releaseEntry](),
	}
}

// frameRatios sizes the per-frame descriptor pools by descriptor type.
func frameRatios() []descriptors.PoolSizeRatio {
	return []descriptors.PoolSizeRatio{
		{Type: uint32(vk.DescriptorTypeStorageImage), Ratio: 3},
		{Type: uint32(vk.DescriptorTypeStorageBuffer), Ratio: 3},
		{Type: uint32(vk.DescriptorTypeUniformBuffer), Ratio: 3},
		{Type: uint32(vk.DescriptorTypeCombinedImageSampler), Ratio: 4},
	}
}

// Initialize brings the whole device stack up. It must run on the main
// thread, after the platform created its window.
func (vr *VulkanRenderer) Initialize(appName string, width, height uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		err = fmt.Errorf("failed to initialize vulkan loader: %w", err)
		core.LogError(err.Error())
		return err
	}

	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	core.LogDebug("Creating Vulkan surface...")
	vr.context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
		ComputeQueueIndex:  -1,
		TransferQueueIndex: -1,
	}
	if err := CreateVulkanSurface(vr.platform, vr.context); err != nil {
		return err
	}
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	swapchain, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = swapchain
	vr.context.FramebufferWidth = swapchain.Extent.Width
	vr.context.FramebufferHeight = swapchain.Extent.Height

	if !DeviceDetectDepthFormat(vr.context.Device) {
		err := fmt.Errorf("failed to find a supported depth format")
		core.LogError(err.Error())
		return err
	}

	if err := vr.createDrawTargets(); err != nil {
		return err
	}

	if err := vr.createDescriptorLayouts(); err != nil {
		return err
	}

	globalAllocator, err := NewDescriptorAllocator(vr.context, vr.options.DescriptorInitialSets, frameRatios(), vr.options.DescriptorMaxSetsPerPool)
	if err != nil {
		return err
	}
	vr.globalDescriptors = globalAllocator

	background, err := NewComputeEffect(vr.context, "gradient", vr.options.ShaderDir+"/gradient.comp.spv", vr.drawImageLayout)
	if err != nil {
		return err
	}
	background.Data.Data1 = mgl32.Vec4{0.1, 0.2, 0.4, 1}
	background.Data.Data2 = mgl32.Vec4{0.8, 0.3, 0.2, 1}
	vr.Background = background

	materials, err := NewVulkanMaterialSystem(vr.context, vr.context.MainRenderpass, vr.sceneDataLayout, vr.options.ShaderDir)
	if err != nil {
		return err
	}
	vr.Materials = materials

	if err := vr.createDefaultResources(); err != nil {
		return err
	}

	sceneDataSize := vk.DeviceSize(unsafe.Sizeof(VulkanSceneData{}))
	vr.frames = make([]*VulkanFrame, vr.options.FramesInFlight)
	for i := range vr.frames {
		frame, err := NewVulkanFrame(vr.context, sceneDataSize, vr.options.DescriptorInitialSets, frameRatios(), vr.options.DescriptorMaxSetsPerPool)
		if err != nil {
			return err
		}
		vr.frames[i] = frame
	}

	core.LogInfo("Vulkan renderer initialized with %d frames in flight.", len(vr.frames))
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Vireo Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}
	if vr.options.Debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for _, name := range requiredExtensions {
			core.LogInfo("  %s", name)
		}
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	var validationLayers []string
	if vr.options.Debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return err
		}

		for _, required := range validationLayers {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				if required == vulkanString(availableLayers[j].LayerName[:]) {
					found = true
					break
				}
			}
			if !found {
				core.LogWarn("Validation layer %s is missing, continuing without validation.", required)
				validationLayers = nil
				break
			}
		}
	}
	createInfo.EnabledLayerCount = uint32(len(validationLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(validationLayers)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("vkCreateInstance failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan instance created.")

	if vr.options.Debug && len(validationLayers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			core.LogWarn("vkCreateDebugReportCallbackEXT failed with %s, continuing without debug output.", VulkanResultString(res))
		} else {
			vr.context.debugMessenger = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return nil
}

// createDrawTargets builds the off-screen color and depth images plus
// the main renderpass and framebuffer at the current render scale.
func (vr *VulkanRenderer) createDrawTargets() error {
	scaledWidth := uint32(float32(vr.context.FramebufferWidth) * vr.options.RenderScale)
	scaledHeight := uint32(float32(vr.context.FramebufferHeight) * vr.options.RenderScale)
	if scaledWidth == 0 {
		scaledWidth = 1
	}
	if scaledHeight == 0 {
		scaledHeight = 1
	}
	vr.drawExtent = vk.Extent2D{Width: scaledWidth, Height: scaledHeight}

	drawImage, err := ImageCreate(
		vr.context,
		vk.ImageType2d,
		scaledWidth,
		scaledHeight,
		vk.FormatR16g16b16a16Sfloat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)|
			vk.ImageUsageFlags(vk.ImageUsageStorageBit)|
			vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		1,
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}
	vr.drawImage = drawImage

	depthImage, err := ImageCreate(
		vr.context,
		vk.ImageType2d,
		scaledWidth,
		scaledHeight,
		vr.context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		1,
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return err
	}
	vr.depthImage = depthImage

	if vr.context.MainRenderpass == nil {
		renderpass, err := RenderpassCreate(vr.context, drawImage.Format, 1.0, 0)
		if err != nil {
			return err
		}
		vr.context.MainRenderpass = renderpass
	}

	framebuffer, err := FramebufferCreate(
		vr.context,
		vr.context.MainRenderpass,
		scaledWidth,
		scaledHeight,
		[]vk.ImageView{drawImage.View, depthImage.View})
	if err != nil {
		return err
	}
	vr.drawFramebuffer = framebuffer

	return nil
}

func (vr *VulkanRenderer) destroyDrawTargets() {
	if vr.drawFramebuffer != nil {
		vr.drawFramebuffer.Destroy(vr.context)
		vr.drawFramebuffer = nil
	}
	if vr.depthImage != nil {
		vr.depthImage.ImageDestroy(vr.context)
		vr.depthImage = nil
	}
	if vr.drawImage != nil {
		vr.drawImage.ImageDestroy(vr.context)
		vr.drawImage = nil
	}
}

func (vr *VulkanRenderer) createDescriptorLayouts() error {
	sceneBuilder := &VulkanDescriptorLayoutBuilder{}
	sceneBuilder.AddBinding(0, vk.DescriptorTypeUniformBuffer)
	sceneLayout, err := sceneBuilder.Build(vr.context, vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit))
	if err != nil {
		return err
	}
	vr.sceneDataLayout = sceneLayout

	drawBuilder := &VulkanDescriptorLayoutBuilder{}
	drawBuilder.AddBinding(0, vk.DescriptorTypeStorageImage)
	drawLayout, err := drawBuilder.Build(vr.context, vk.ShaderStageFlags(vk.ShaderStageComputeBit))
	if err != nil {
		return err
	}
	vr.drawImageLayout = drawLayout

	vr.globalDeletions.Push(releaseLayoutEntry(sceneLayout))
	vr.globalDeletions.Push(releaseLayoutEntry(drawLayout))
	return nil
}

// WaitPreviousFrame blocks until the slot's last submission retired,
// then flushes the slot's deletion queue and resets its descriptor
// pools. The fence is reset later, right before the next submit, so a
// skipped frame leaves the slot waitable.
func (vr *VulkanRenderer) WaitPreviousFrame(slot int, timeout time.Duration) error {
	frame := vr.frames[slot]
	vr.currentSlot = slot

	if err := frame.InFlightFence.FenceWait(vr.context, uint64(timeout)); err != nil {
		return err
	}

	frame.Deletions.Flush(vr.release)
	if err := frame.Descriptors.ResetPools(); err != nil {
		return fmt.Errorf("resetting frame descriptor pools: %w", err)
	}
	return nil
}

func (vr *VulkanRenderer) AcquireImage(slot int) (uint32, error) {
	frame := vr.frames[slot]
	return vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, acquireTimeoutNs, frame.ImageAvailableSemaphore, vk.NullFence)
}

// Record fills the slot's command buffer: background compute into the
// draw image, the geometry pass over it, then a blit to the swapchain
// image.
func (vr *VulkanRenderer) Record(slot int, imageIndex uint32, packet *renderer.RenderPacket) (scene.DrawStats, error) {
	frame := vr.frames[slot]
	cb := frame.CommandBuffer

	if err := cb.Reset(); err != nil {
		return scene.DrawStats{}, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		return scene.DrawStats{}, err
	}

	// Per-frame scene constants.
	sceneData := VulkanSceneData{
		View:              packet.View,
		Projection:        packet.Projection,
		ViewProjection:    packet.Projection.Mul4(packet.View),
		AmbientColor:      mgl32.Vec4{0.1, 0.1, 0.1, 1},
		SunlightDirection: mgl32.Vec4{0.3, 1, 0.3, 1},
		SunlightColor:     mgl32.Vec4{1, 1, 1, 1},
	}
	sceneBytes := unsafe.Slice((*byte)(unsafe.Pointer(&sceneData)), unsafe.Sizeof(sceneData))
	if err := frame.SceneBuffer.BufferLoadData(sceneBytes); err != nil {
		return scene.DrawStats{}, err
	}

	globalSet, err := frame.Descriptors.Allocate(vr.sceneDataLayout)
	if err != nil {
		return scene.DrawStats{}, fmt.Errorf("allocating scene data set: %w", err)
	}
	sceneWriter := &VulkanDescriptorWriter{}
	sceneWriter.WriteBuffer(0, frame.SceneBuffer.Handle, vk.DeviceSize(unsafe.Sizeof(sceneData)), 0, vk.DescriptorTypeUniformBuffer)
	sceneWriter.UpdateSet(vr.context, globalSet)

	drawImageSet, err := frame.Descriptors.Allocate(vr.drawImageLayout)
	if err != nil {
		return scene.DrawStats{}, fmt.Errorf("allocating draw image set: %w", err)
	}
	drawWriter := &VulkanDescriptorWriter{}
	drawWriter.WriteImage(0, vr.drawImage.View, vk.NullSampler, vk.ImageLayoutGeneral, vk.DescriptorTypeStorageImage)
	drawWriter.UpdateSet(vr.context, drawImageSet)

	// Background pass writes the whole draw image in general layout.
	ImageTransitionLayout(cb, vr.drawImage.Handle, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageLayoutUndefined, vk.ImageLayoutGeneral)
	vr.Background.Dispatch(cb, drawImageSet, vr.drawExtent.Width, vr.drawExtent.Height)

	// Geometry pass.
	vr.context.MainRenderpass.RenderpassBegin(cb, vr.drawFramebuffer.Handle, vr.drawExtent)

	viewport := vk.Viewport{
		Width:    float32(vr.drawExtent.Width),
		Height:   float32(vr.drawExtent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	scissor := vk.Rect2D{Extent: vr.drawExtent}
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.activeCommandBuffer = cb
	vr.activeLayout = nil

	list := scene.BuildDrawList(packet.Context, packet.View, packet.Projection, packet.CameraPosition, &vr.frustum)
	globalSetRef := scene.ResourceRef{ID: core.AcquireResourceID(), Native: globalSet}
	stats := scene.Emit(vr, globalSetRef, &list)

	vr.activeCommandBuffer = nil
	vr.activeLayout = nil

	vr.context.MainRenderpass.RenderpassEnd(cb)

	// The renderpass left the draw image in transfer src layout; move
	// the swapchain image to transfer dst, blit, then make it
	// presentable.
	swapchainImage := vr.context.Swapchain.Images[imageIndex]
	ImageTransitionLayout(cb, swapchainImage, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	ImageBlitTo(cb,
		vr.drawImage.Handle, vr.drawExtent.Width, vr.drawExtent.Height,
		swapchainImage, vr.context.Swapchain.Extent.Width, vr.context.Swapchain.Extent.Height)
	ImageTransitionLayout(cb, swapchainImage, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc)

	if err := cb.End(); err != nil {
		return scene.DrawStats{}, err
	}
	return stats, nil
}

func (vr *VulkanRenderer) Submit(slot int, imageIndex uint32) error {
	frame := vr.frames[slot]

	// Reset here, not in the wait: a frame skipped after acquire must
	// leave the fence signaled.
	if err := frame.InFlightFence.FenceReset(vr.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{frame.ImageAvailableSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.RenderCompleteSemaphore},
	}

	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, frame.InFlightFence.Handle); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	frame.CommandBuffer.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(slot int, imageIndex uint32) error {
	frame := vr.frames[slot]
	return vr.context.Swapchain.SwapchainPresent(vr.context, vr.context.Device.PresentQueue, frame.RenderCompleteSemaphore, imageIndex)
}

// Recreate rebuilds the swapchain and the scaled draw targets for new
// framebuffer dimensions.
func (vr *VulkanRenderer) Recreate(width, height uint32) error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	swapchain, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = swapchain
	vr.context.FramebufferWidth = swapchain.Extent.Width
	vr.context.FramebufferHeight = swapchain.Extent.Height

	vr.destroyDrawTargets()
	if err := vr.createDrawTargets(); err != nil {
		return err
	}

	core.LogInfo("Render targets recreated at %dx%d.", swapchain.Extent.Width, swapchain.Extent.Height)
	return nil
}

// ScheduleBufferRelease defers buffer destruction until the current
// frame slot is safely reused.
func (vr *VulkanRenderer) ScheduleBufferRelease(ref scene.ResourceRef) {
	if buffer, ok := ref.Native.(*VulkanBuffer); ok && buffer != nil {
		vr.frames[vr.currentSlot].Deletions.Push(releaseBufferEntry(buffer))
	}
}

// ScheduleImageRelease defers image destruction likewise.
func (vr *VulkanRenderer) ScheduleImageRelease(image *VulkanImage) {
	if image != nil {
		vr.frames[vr.currentSlot].Deletions.Push(releaseImageEntry(image))
	}
}

func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device != nil && vr.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	}

	for _, frame := range vr.frames {
		if frame == nil {
			continue
		}
		frame.Deletions.Flush(vr.release)
		frame.Destroy(vr.context)
	}
	vr.frames = nil

	if vr.Materials != nil {
		vr.Materials.Destroy()
		vr.Materials = nil
	}
	if vr.Background != nil {
		vr.Background.Destroy(vr.context)
		vr.Background = nil
	}
	if vr.globalDescriptors != nil {
		vr.globalDescriptors.Destroy()
		vr.globalDescriptors = nil
	}

	vr.globalDeletions.Flush(vr.release)
	vr.destroyDrawTargets()

	if vr.context.MainRenderpass != nil {
		vr.context.MainRenderpass.RenderpassDestroy(vr.context)
		vr.context.MainRenderpass = nil
	}
	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
		vr.context.Swapchain = nil
	}
	if vr.context.Device != nil {
		DeviceDestroy(vr.context)
	}
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}
	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		vr.context.debugMessenger = vk.NullDebugReportCallback
	}
	if vr.context.Instance != nil {
		vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
		vr.context.Instance = nil
	}

	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

// --- DrawRecorder ---

func (vr *VulkanRenderer) BindPipeline(pipeline scene.ResourceRef) {
	vk.CmdBindPipeline(vr.activeCommandBuffer.Handle, vk.PipelineBindPointGraphics, pipeline.Native.(vk.Pipeline))
}

func (vr *VulkanRenderer) BindGlobalSet(layout scene.ResourceRef, set scene.ResourceRef) {
	vr.activeLayout = layout.Native.(vk.PipelineLayout)
	vk.CmdBindDescriptorSets(
		vr.activeCommandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		vr.activeLayout,
		0, 1, []vk.DescriptorSet{set.Native.(vk.DescriptorSet)},
		0, nil)
}

func (vr *VulkanRenderer) BindMaterialSet(layout scene.ResourceRef, set scene.ResourceRef) {
	vk.CmdBindDescriptorSets(
		vr.activeCommandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		layout.Native.(vk.PipelineLayout),
		1, 1, []vk.DescriptorSet{set.Native.(vk.DescriptorSet)},
		0, nil)
}

func (vr *VulkanRenderer) BindIndexBuffer(buffer scene.ResourceRef) {
	vk.CmdBindIndexBuffer(vr.activeCommandBuffer.Handle, buffer.Native.(*VulkanBuffer).Handle, 0, vk.IndexTypeUint32)
}

func (vr *VulkanRenderer) BindVertexBuffer(buffer scene.ResourceRef) {
	vk.CmdBindVertexBuffers(
		vr.activeCommandBuffer.Handle,
		0, 1,
		[]vk.Buffer{buffer.Native.(*VulkanBuffer).Handle},
		[]vk.DeviceSize{0})
}

func (vr *VulkanRenderer) DrawIndexed(indexCount, firstIndex uint32, transform mgl32.Mat4) {
	vk.CmdPushConstants(
		vr.activeCommandBuffer.Handle,
		vr.activeLayout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0,
		uint32(unsafe.Sizeof(transform)),
		unsafe.Pointer(&transform))
	vk.CmdDrawIndexed(vr.activeCommandBuffer.Handle, indexCount, 1, firstIndex, 0, 0)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
