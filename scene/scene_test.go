package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/physics"
)

type recordingDisposer struct {
	name  string
	order *[]string
	err   error
}

func (d *recordingDisposer) Dispose() error {
	*d.order = append(*d.order, d.name)
	return d.err
}

func newPhysicsScene(t *testing.T, engine *physics.Engine) *Scene {
	t.Helper()
	backend, err := engine.Attach(physics.DefaultGravity)
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	if err := s.SetPhysics(physics.NewClock(backend)); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSceneDisposeCascade(t *testing.T) {
	engine := physics.NewEngine()
	s := newPhysicsScene(t, engine)

	var order []string
	s.Own(&recordingDisposer{name: "first", order: &order})
	s.Own(&recordingDisposer{name: "second", order: &order})

	keys := 0
	s.Keyboard.Add(func(core.KeyEvent) { keys++ })
	s.AddNode(NewNode("crate"))
	s.AddCamera(NewCamera(0.8, 1, 0.01, 100))

	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if engine.Live() != 0 {
		t.Errorf("expected 0 live backends, got %d", engine.Live())
	}
	if !s.Physics().Disposed() {
		t.Error("expected the physics clock to be disposed")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("owned disposal: expected [second first], got %v", order)
	}
	s.Keyboard.Notify(core.KeyEvent{Type: core.KeyDown, Key: core.KeySpace})
	if keys != 0 {
		t.Error("keyboard observers must be dropped on dispose")
	}
	if len(s.Root.Children) != 0 || s.ActiveCamera != nil {
		t.Error("expected the node tree and cameras to be released")
	}

	if err := s.Dispose(); err != nil {
		t.Errorf("second Dispose: expected nil, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("second Dispose must not dispose resources again, got %v", order)
	}
}

func TestSceneDisposeJoinsErrors(t *testing.T) {
	s := New()
	var order []string
	boom := errors.New("boom")
	s.Own(&recordingDisposer{name: "bad", order: &order, err: boom})
	s.Own(&recordingDisposer{name: "good", order: &order})

	err := s.Dispose()
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("a failing resource must not stop teardown, got %v", order)
	}
}

func TestSceneSetPhysicsTwice(t *testing.T) {
	engine := physics.NewEngine()
	s := newPhysicsScene(t, engine)
	backend, _ := engine.Attach(physics.DefaultGravity)
	if err := s.SetPhysics(physics.NewClock(backend)); !errors.Is(err, ErrPhysicsAttached) {
		t.Errorf("expected ErrPhysicsAttached, got %v", err)
	}
}

func TestSceneMergeAndStep(t *testing.T) {
	engine := physics.NewEngine()
	s := newPhysicsScene(t, engine)

	crate := NewNode("crate")
	crate.SetPosition(mgl32.Vec3{0, 10, 0})
	crate.Body = physics.NewBody(physics.MotionDynamic, 1)
	crate.Mesh = CreateCube(1)
	floor := NewNode("floor")
	floor.Body = physics.NewBody(physics.MotionStatic, 1)

	s.Merge(&Asset{
		Roots:   []*Node{crate, floor},
		Cameras: []*Camera{NewCamera(0.8, 1, 0.01, 100)},
		Lights:  []*Light{{Type: LightPoint}},
	})
	if !vecNear(crate.Body.Position, mgl32.Vec3{0, 10, 0}, 1e-5) {
		t.Fatalf("Merge: expected body seeded at (0,10,0), got %v", crate.Body.Position)
	}
	if len(s.Bodies()) != 2 || len(s.Meshes()) != 1 || len(s.Cameras) != 1 || len(s.Lights) != 1 {
		t.Fatalf("Merge: got %d bodies %d meshes %d cameras %d lights",
			len(s.Bodies()), len(s.Meshes()), len(s.Cameras), len(s.Lights))
	}

	if err := s.StepPhysics(0.1); err != nil {
		t.Fatal(err)
	}
	if crate.Transform.Position.Y() >= 10 {
		t.Errorf("expected the crate node to fall, got y=%v", crate.Transform.Position.Y())
	}

	s.Physics().Pause()
	before := crate.Transform.Position
	if err := s.StepPhysics(0.1); err != nil {
		t.Fatal(err)
	}
	if crate.Transform.Position != before {
		t.Error("paused physics must not move nodes")
	}
}

func TestSceneStepAfterDispose(t *testing.T) {
	engine := physics.NewEngine()
	s := newPhysicsScene(t, engine)
	s.Dispose()
	if err := s.StepPhysics(0.016); !errors.Is(err, physics.ErrDetached) {
		t.Errorf("expected ErrDetached, got %v", err)
	}
}
