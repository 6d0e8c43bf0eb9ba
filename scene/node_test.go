package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/physics"
)

// vecNear compares by distance. mgl32's ApproxEqual squares the threshold
// when a component is zero, which float32 rounding noise can exceed.
func vecNear(got, want mgl32.Vec3, tol float32) bool {
	return got.Sub(want).Len() < tol
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	parent.SetPosition(mgl32.Vec3{1, 0, 0})
	child.SetPosition(mgl32.Vec3{0, 2, 0})

	if got := child.WorldPosition(); !vecNear(got, mgl32.Vec3{1, 2, 0}, 1e-5) {
		t.Errorf("WorldPosition: expected (1,2,0), got %v", got)
	}

	parent.SetPosition(mgl32.Vec3{5, 0, 0})
	if got := child.WorldPosition(); !vecNear(got, mgl32.Vec3{5, 2, 0}, 1e-5) {
		t.Errorf("WorldPosition after parent move: expected (5,2,0), got %v", got)
	}
}

func TestNodeBodyRoundTrip(t *testing.T) {
	parent := NewNode("parent")
	parent.SetPosition(mgl32.Vec3{0, 1, 0})
	parent.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	child := NewNode("child")
	parent.AddChild(child)
	child.SetPosition(mgl32.Vec3{1, 0, 0})
	child.Body = physics.NewBody(physics.MotionDynamic, 1)

	child.SyncToBody()
	if !vecNear(child.Body.Position, mgl32.Vec3{0, 1, -1}, 1e-5) {
		t.Fatalf("SyncToBody: expected (0,1,-1), got %v", child.Body.Position)
	}

	child.Body.Position = child.Body.Position.Add(mgl32.Vec3{0, -1, 0})
	child.SyncFromBody()
	if got := child.Transform.Position; !vecNear(got, mgl32.Vec3{1, -1, 0}, 1e-5) {
		t.Errorf("SyncFromBody local position: expected (1,-1,0), got %v", got)
	}
	if got := child.WorldPosition(); !vecNear(got, mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("SyncFromBody world position: expected (0,0,-1), got %v", got)
	}
}

func TestNodeFind(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	root.AddChild(a)
	a.AddChild(b)

	if root.Find("b") != b {
		t.Error("Find: expected to locate grandchild")
	}
	if root.Find("missing") != nil {
		t.Error("Find: expected nil for a missing name")
	}

	a.RemoveChild(b)
	if b.Parent != nil || root.Find("b") != nil {
		t.Error("RemoveChild: expected b to be detached")
	}
}
