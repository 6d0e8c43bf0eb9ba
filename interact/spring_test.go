package interact

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/physics"
	"physics-viewer/scene"
)

func bodyCube(s *scene.Scene, name string, pos mgl32.Vec3, motion physics.MotionType) *scene.Node {
	n := cubeAt(name, pos)
	n.Body = physics.NewBody(motion, 1)
	n.Body.HalfExtents = mgl32.Vec3{0.5, 0.5, 0.5}
	s.AddNode(n)
	n.SyncToBody()
	return n
}

func TestSpringPickDynamicOnly(t *testing.T) {
	s := scene.New()
	bodyCube(s, "wall", mgl32.Vec3{0, 0, -5}, physics.MotionStatic)

	sp := NewSpring()
	if sp.PickRay(s, testCamera(), CenterRay(testCamera())) {
		t.Fatal("picking a static body must stay Idle")
	}
	if sp.Active() {
		t.Error("expected Idle")
	}
}

func TestSpringPickMeshUnderBody(t *testing.T) {
	s := scene.New()
	crate := scene.NewNode("crate")
	crate.SetPosition(mgl32.Vec3{0, 0, -5})
	crate.Body = physics.NewBody(physics.MotionDynamic, 1)
	child := scene.NewNode("crate_mesh")
	child.Mesh = scene.CreateCube(1)
	crate.AddChild(child)
	s.AddNode(crate)
	crate.SyncToBody()

	sp := NewSpring()
	if !sp.PickRay(s, testCamera(), CenterRay(testCamera())) {
		t.Fatal("expected the pick to reach the body owner")
	}
	if sp.Target() != crate {
		t.Errorf("expected the body owner as target, got %v", sp.Target())
	}
}

func TestSpringPickWhileActiveIgnored(t *testing.T) {
	s := scene.New()
	first := bodyCube(s, "first", mgl32.Vec3{0, 0, -5}, physics.MotionDynamic)
	bodyCube(s, "second", mgl32.Vec3{3, 0, -5}, physics.MotionDynamic)
	cam := testCamera()

	sp := NewSpring()
	if !sp.PickRay(s, cam, CenterRay(cam)) {
		t.Fatal("expected first pick to succeed")
	}
	other := Ray{Origin: mgl32.Vec3{3, 0, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	if sp.PickRay(s, cam, other) {
		t.Error("a pick while Active must be ignored")
	}
	if sp.Target() != first {
		t.Errorf("expected the first target to be kept, got %v", sp.Target().Name)
	}
}

func TestSpringPickReleaseNoForce(t *testing.T) {
	s := scene.New()
	n := bodyCube(s, "crate", mgl32.Vec3{0, 0, -5}, physics.MotionDynamic)
	posBefore := n.Body.Position
	velBefore := n.Body.LinearVelocity
	angBefore := n.Body.AngularVelocity

	sp := NewSpring()
	cam := testCamera()
	if !sp.PickRay(s, cam, CenterRay(cam)) {
		t.Fatal("expected pick to succeed")
	}
	sp.Release()
	sp.Step(cam, 1.0/60)

	if n.Body.Position != posBefore || n.Body.LinearVelocity != velBefore || n.Body.AngularVelocity != angBefore {
		t.Error("pick followed by release must not change the body")
	}
	if sp.Active() || sp.Target() != nil {
		t.Error("expected Idle after release")
	}
}

func TestSpringStepIdle(t *testing.T) {
	s := scene.New()
	n := bodyCube(s, "crate", mgl32.Vec3{0, 0, -5}, physics.MotionDynamic)
	NewSpring().Step(testCamera(), 1.0/60)
	if n.Body.LinearVelocity != (mgl32.Vec3{}) {
		t.Error("Step while Idle must not apply force")
	}
}

func TestSpringPullsTowardAnchor(t *testing.T) {
	s := scene.New()
	n := bodyCube(s, "crate", mgl32.Vec3{0, 0, -5}, physics.MotionDynamic)
	engine := physics.NewEngine()
	world, err := engine.Attach(mgl32.Vec3{})
	if err != nil {
		t.Fatal(err)
	}

	cam := testCamera()
	sp := NewSpring()
	if !sp.PickRay(s, cam, CenterRay(cam)) {
		t.Fatal("expected pick to succeed")
	}
	cam.SetPosition(mgl32.Vec3{1, 0, 0})
	anchor := sp.Anchor(cam)
	if !vecNear(anchor, mgl32.Vec3{1, 0, -4.5}, 1e-4) {
		t.Fatalf("anchor: expected (1,0,-4.5), got %v", anchor)
	}

	const dt = float32(1.0 / 60)
	sp.Step(cam, dt)
	if n.Body.LinearVelocity.X() <= 0 {
		t.Fatalf("expected the first step to pull toward +X, got %v", n.Body.LinearVelocity)
	}
	for i := 0; i < 300; i++ {
		sp.Step(cam, dt)
		if err := world.IntegrateStep(dt, []*physics.Body{n.Body}); err != nil {
			t.Fatal(err)
		}
	}

	held := n.Body.Position.Add(n.Body.Orientation.Rotate(sp.localHit))
	if d := held.Sub(anchor).Len(); d > 0.05 {
		t.Errorf("held point should settle on the anchor, still %v away", d)
	}
}

func TestSpringReleasesWhenBodyTurnsStatic(t *testing.T) {
	s := scene.New()
	n := bodyCube(s, "crate", mgl32.Vec3{0, 0, -5}, physics.MotionDynamic)
	cam := testCamera()
	sp := NewSpring()
	sp.PickRay(s, cam, CenterRay(cam))

	n.Body.Motion = physics.MotionStatic
	sp.Step(cam, 1.0/60)
	if sp.Active() {
		t.Error("expected the spring to release a body that is no longer dynamic")
	}
}
