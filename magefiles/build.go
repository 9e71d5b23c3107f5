//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaders = []struct {
	source string
	output string
}{
	{"assets/shaders/mesh.vert", "assets/shaders/mesh.vert.spv"},
	{"assets/shaders/mesh.frag", "assets/shaders/mesh.frag.spv"},
	{"assets/shaders/gradient.comp", "assets/shaders/gradient.comp.spv"},
}

// Compiles every GLSL shader to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	for _, shader := range shaders {
		if _, err := executeCmd("glslc", withArgs(shader.source, "-o", shader.output), withStream()); err != nil {
			return err
		}
	}
	return nil
}
