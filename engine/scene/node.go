package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeKind tags the node variant. A node either only carries a
// transform for its children or additionally bears a mesh.
type NodeKind uint8

const (
	NodeTransformOnly NodeKind = iota
	NodeMesh
)

// Node is one element of the scene graph. Parents own their children;
// the child keeps a non-owning back-reference used only for upward
// walks. WorldTransform is derived state, valid after the last
// RefreshTransform from the root.
type Node struct {
	Kind NodeKind
	// Mesh is set only when Kind == NodeMesh.
	Mesh *MeshAsset

	parent   *Node
	children []*Node

	localTransform mgl32.Mat4
	worldTransform mgl32.Mat4
}

func NewNode() *Node {
	return &Node{
		Kind:           NodeTransformOnly,
		localTransform: mgl32.Ident4(),
		worldTransform: mgl32.Ident4(),
	}
}

func NewMeshNode(mesh *MeshAsset) *Node {
	n := NewNode()
	n.Kind = NodeMesh
	n.Mesh = mesh
	return n
}

// AddChild attaches a child node. A node already parented elsewhere is
// detached from its old parent first, keeping the graph a tree.
func (n *Node) AddChild(child *Node) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches a direct child. A node that is not a child of n
// is left alone.
func (n *Node) RemoveChild(child *Node) {
	n.removeChild(child)
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// SetLocalTransform stores the node's transform relative to its parent.
// World transforms are stale until the next RefreshTransform.
func (n *Node) SetLocalTransform(m mgl32.Mat4) {
	n.localTransform = m
}

func (n *Node) LocalTransform() mgl32.Mat4 {
	return n.localTransform
}

func (n *Node) WorldTransform() mgl32.Mat4 {
	return n.worldTransform
}

// RefreshTransform recomputes world transforms for this node and its
// whole subtree from the given parent matrix.
func (n *Node) RefreshTransform(parentMatrix mgl32.Mat4) {
	n.worldTransform = parentMatrix.Mul4(n.localTransform)
	for _, child := range n.children {
		child.RefreshTransform(n.worldTransform)
	}
}

// Draw flattens this node's subtree into the draw context. topMatrix is
// applied on top of the refreshed world transforms, letting a caller
// instance the same subtree at several places.
func (n *Node) Draw(topMatrix mgl32.Mat4, ctx *DrawContext) {
	if n.Kind == NodeMesh && n.Mesh != nil {
		nodeMatrix := topMatrix.Mul4(n.worldTransform)
		for _, surface := range n.Mesh.Surfaces {
			ctx.Append(RenderObject{
				IndexCount:   surface.Count,
				FirstIndex:   surface.StartIndex,
				IndexBuffer:  n.Mesh.Buffers.IndexBuffer,
				VertexBuffer: n.Mesh.Buffers.VertexBuffer,
				Material:     surface.Material,
				Bounds:       surface.Bounds,
				Transform:    nodeMatrix,
			})
		}
	}
	for _, child := range n.children {
		child.Draw(topMatrix, ctx)
	}
}
