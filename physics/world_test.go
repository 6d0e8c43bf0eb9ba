package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestEngineAttachDetach(t *testing.T) {
	engine := NewEngine()
	a, err := engine.Attach(DefaultGravity)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	b, _ := engine.Attach(DefaultGravity)
	if engine.Live() != 2 {
		t.Errorf("Live: expected 2, got %d", engine.Live())
	}

	a.Detach()
	a.Detach()
	if engine.Live() != 1 {
		t.Errorf("Live after double detach: expected 1, got %d", engine.Live())
	}
	if err := a.IntegrateStep(0.1, nil); !errors.Is(err, ErrDetached) {
		t.Errorf("IntegrateStep on detached: expected ErrDetached, got %v", err)
	}
	b.Detach()
	if engine.Live() != 0 {
		t.Errorf("Live: expected 0, got %d", engine.Live())
	}
}

func TestEngineRejectsNonFiniteGravity(t *testing.T) {
	engine := NewEngine()
	nan := float32(math.NaN())
	if _, err := engine.Attach(mgl32.Vec3{0, nan, 0}); !errors.Is(err, ErrInvalidGravity) {
		t.Errorf("Attach(NaN): expected ErrInvalidGravity, got %v", err)
	}
	if engine.Live() != 0 {
		t.Errorf("Live: expected 0, got %d", engine.Live())
	}
}

func TestWorldStepMotionTypes(t *testing.T) {
	world := &World{Gravity: mgl32.Vec3{0, -10, 0}}
	dynamic := NewBody(MotionDynamic, 1)
	dynamic.LinearDamping = 0
	static := NewBody(MotionStatic, 1)
	static.Position = mgl32.Vec3{5, 0, 0}
	kinematic := NewBody(MotionKinematic, 1)
	kinematic.LinearVelocity = mgl32.Vec3{1, 0, 0}

	if err := world.IntegrateStep(0.5, []*Body{dynamic, static, kinematic}); err != nil {
		t.Fatalf("IntegrateStep: %v", err)
	}

	if dynamic.LinearVelocity.Y() != -5 {
		t.Errorf("dynamic velocity: expected -5, got %v", dynamic.LinearVelocity.Y())
	}
	if dynamic.Position.Y() != -2.5 {
		t.Errorf("dynamic position: expected -2.5, got %v", dynamic.Position.Y())
	}
	if static.Position != (mgl32.Vec3{5, 0, 0}) {
		t.Errorf("static position: expected unchanged, got %v", static.Position)
	}
	if kinematic.Position != (mgl32.Vec3{0.5, 0, 0}) || kinematic.LinearVelocity.Y() != 0 {
		t.Errorf("kinematic: expected (0.5,0,0) without gravity, got %v / %v", kinematic.Position, kinematic.LinearVelocity)
	}
}

func TestWorldRestsOnStaticBox(t *testing.T) {
	world := &World{Gravity: DefaultGravity}
	ground := NewBody(MotionStatic, 1)
	ground.HalfExtents = mgl32.Vec3{10, 0.5, 10}
	ground.Position = mgl32.Vec3{0, -0.5, 0}

	box := NewBody(MotionDynamic, 2)
	box.HalfExtents = mgl32.Vec3{0.5, 0.5, 0.5}
	box.Position = mgl32.Vec3{0, 2, 0}
	box.Restitution = 0

	bodies := []*Body{ground, box}
	for i := 0; i < 240; i++ {
		world.IntegrateStep(1.0/60, bodies)
	}

	if y := box.Position.Y(); y < 0.45 || y > 0.55 {
		t.Errorf("box rest height: expected ~0.5, got %v", y)
	}
	if ground.Position != (mgl32.Vec3{0, -0.5, 0}) {
		t.Errorf("ground: expected unchanged, got %v", ground.Position)
	}
}

func TestApplyImpulseAt(t *testing.T) {
	b := NewBody(MotionDynamic, 2)
	b.HalfExtents = mgl32.Vec3{0.5, 0.5, 0.5}

	b.ApplyImpulseAt(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0.5, 0, 0})

	if b.LinearVelocity != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("linear velocity: expected (0,0,1), got %v", b.LinearVelocity)
	}
	// r x J = (0.5,0,0) x (0,0,2) = (0,-1,0)
	if b.AngularVelocity.Y() >= 0 || b.AngularVelocity.X() != 0 || b.AngularVelocity.Z() != 0 {
		t.Errorf("angular velocity: expected negative Y spin, got %v", b.AngularVelocity)
	}

	static := NewBody(MotionStatic, 1)
	static.ApplyImpulseAt(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 0, 0})
	if static.LinearVelocity.LenSqr() != 0 || static.AngularVelocity.LenSqr() != 0 {
		t.Errorf("static body: expected no velocity, got %v / %v", static.LinearVelocity, static.AngularVelocity)
	}
}

func TestMotionTypeString(t *testing.T) {
	tests := []struct {
		motion MotionType
		want   string
	}{
		{MotionStatic, "static"},
		{MotionDynamic, "dynamic"},
		{MotionKinematic, "kinematic"},
		{MotionType(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.motion.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
