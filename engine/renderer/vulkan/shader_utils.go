package vulkan

import (
	"encoding/binary"
	"fmt"
	"os"

	vk "github.com/goki/vulkan"

	"github.com/vireo3d/vireo/engine/core"
)

// LoadShaderModule reads a SPIR-V binary from disk and wraps it in a
// shader module.
func LoadShaderModule(context *VulkanContext, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("unable to read shader module %s: %w", path, err)
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		err := fmt.Errorf("shader module %s is not valid SPIR-V (%d bytes)", path, len(code))
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		err := fmt.Errorf("vkCreateShaderModule failed for %s with %s", path, VulkanResultString(res))
		core.LogError(err.Error())
		return vk.NullShaderModule, err
	}

	core.LogDebug("Loaded shader module %s (%d bytes).", path, len(code))
	return module, nil
}

// ShaderStageInfo builds the pipeline stage description for a loaded
// module. Entry point is always "main".
func ShaderStageInfo(module vk.ShaderModule, stage vk.ShaderStageFlagBits) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  VulkanSafeString("main"),
	}
}
