package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/physics"
)

// Node is a transform in the scene graph. A node may carry a mesh and, when
// the asset declares one, a rigid body that drives its transform.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Body      *physics.Body
	Visible   bool
	Pickable  bool
	Id        uint32

	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

// Importers build nodes off the frame loop, so ids are handed out atomically.
var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Pickable:         true,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		local := n.Transform.Matrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.WorldMatrix().Mul4(local)
		} else {
			n.worldMatrix = local
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// WorldRotation composes rotations up to the root. Non-uniform parent scale
// is ignored.
func (n *Node) WorldRotation() mgl32.Quat {
	q := n.Transform.Rotation
	for p := n.Parent; p != nil; p = p.Parent {
		q = p.Transform.Rotation.Mul(q)
	}
	return q.Normalize()
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

// SyncToBody seeds the body's world pose from the node.
func (n *Node) SyncToBody() {
	if n.Body == nil {
		return
	}
	n.Body.Position = n.WorldPosition()
	n.Body.Orientation = n.WorldRotation()
}

// SyncFromBody writes the body's world pose back into the node's local
// transform.
func (n *Node) SyncFromBody() {
	if n.Body == nil {
		return
	}
	pos := n.Body.Position
	rot := n.Body.Orientation
	if n.Parent != nil {
		inv := n.Parent.WorldMatrix().Inv()
		pos = mgl32.TransformCoordinate(pos, inv)
		rot = n.Parent.WorldRotation().Inverse().Mul(rot)
	}
	n.Transform.Position = pos
	n.Transform.Rotation = rot.Normalize()
	n.MarkWorldMatrixDirty()
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
