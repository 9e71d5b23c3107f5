package assets

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// SceneManifest is the on-disk TOML description of a scene: a set of
// named materials and a node tree referencing them.
type SceneManifest struct {
	Name      string             `toml:"name"`
	Materials []MaterialManifest `toml:"materials"`
	Nodes     []NodeManifest     `toml:"nodes"`
}

type MaterialManifest struct {
	Name string `toml:"name"`
	// Mode is "opaque" or "blend".
	Mode       string     `toml:"mode"`
	Color      [4]float32 `toml:"color"`
	MetalRough [4]float32 `toml:"metal_rough"`
}

type NodeManifest struct {
	Name string `toml:"name"`
	// Mesh is "cube", "plane" or empty for a transform-only node.
	Mesh     string `toml:"mesh"`
	Size     float32 `toml:"size"`
	Material string `toml:"material"`

	Position    [3]float32 `toml:"position"`
	RotationDeg [3]float32 `toml:"rotation_deg"`
	Scale       [3]float32 `toml:"scale"`

	// Parent names another node in the manifest; empty parents to the
	// scene root.
	Parent string `toml:"parent"`
}

// ParseManifest reads and validates a scene manifest.
func ParseManifest(path string) (*SceneManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene manifest %s: %w", path, err)
	}

	manifest := &SceneManifest{}
	if err := toml.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parsing scene manifest %s: %w", path, err)
	}
	if err := manifest.validate(); err != nil {
		return nil, fmt.Errorf("scene manifest %s: %w", path, err)
	}
	return manifest, nil
}

func (m *SceneManifest) validate() error {
	materials := make(map[string]bool, len(m.Materials))
	for i := range m.Materials {
		mat := &m.Materials[i]
		if mat.Name == "" {
			return fmt.Errorf("material %d has no name", i)
		}
		if materials[mat.Name] {
			return fmt.Errorf("duplicate material %q", mat.Name)
		}
		materials[mat.Name] = true
		switch mat.Mode {
		case "", "opaque", "blend":
		default:
			return fmt.Errorf("material %q: unknown mode %q", mat.Name, mat.Mode)
		}
	}

	nodes := make(map[string]bool, len(m.Nodes))
	for i := range m.Nodes {
		node := &m.Nodes[i]
		if node.Name != "" {
			if nodes[node.Name] {
				return fmt.Errorf("duplicate node %q", node.Name)
			}
			nodes[node.Name] = true
		}
		switch node.Mesh {
		case "", "cube", "plane":
		default:
			return fmt.Errorf("node %q: unknown mesh kind %q", node.Name, node.Mesh)
		}
		if node.Mesh != "" && node.Size <= 0 {
			return fmt.Errorf("node %q: mesh needs a positive size", node.Name)
		}
		if node.Material != "" && !materials[node.Material] {
			return fmt.Errorf("node %q references unknown material %q", node.Name, node.Material)
		}
	}
	for i := range m.Nodes {
		node := &m.Nodes[i]
		if node.Parent != "" && !nodes[node.Parent] {
			return fmt.Errorf("node %q references unknown parent %q", node.Name, node.Parent)
		}
	}
	return nil
}
