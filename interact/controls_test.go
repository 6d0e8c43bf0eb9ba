package interact

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
)

type fakeDevice struct {
	keys    map[int]bool
	buttons map[int]bool
	x, y    float64
}

func (d *fakeDevice) IsKeyPressed(key int) bool            { return d.keys[key] }
func (d *fakeDevice) IsMouseButtonPressed(button int) bool { return d.buttons[button] }
func (d *fakeDevice) GetCursorPos() (float64, float64)     { return d.x, d.y }

func TestCameraControlsMove(t *testing.T) {
	cam := testCamera()
	cc := NewCameraControls(cam, 2)
	if !cam.Controls {
		t.Error("expected the camera to be marked as controlled")
	}

	dev := &fakeDevice{keys: map[int]bool{core.KeyW: true}, buttons: map[int]bool{}}
	in := NewInput()
	in.Update(dev)
	cc.Update(in, 0.5)
	if !vecNear(cam.Position, mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("W: expected (0,0,-1), got %v", cam.Position)
	}

	dev.keys = map[int]bool{core.KeyQ: true}
	in.Update(dev)
	cc.Update(in, 0.5)
	if !vecNear(cam.Position, mgl32.Vec3{0, 1, -1}, 1e-5) {
		t.Errorf("Q: expected (0,1,-1), got %v", cam.Position)
	}
}

func TestCameraControlsLook(t *testing.T) {
	cam := testCamera()
	cc := NewCameraControls(cam, 2)
	dev := &fakeDevice{keys: map[int]bool{}, buttons: map[int]bool{core.MouseRight: true}}
	in := NewInput()

	in.Update(dev) // press frame: no look yet
	cc.Update(in, 0.016)
	dev.x = 100
	in.Update(dev)
	cc.Update(in, 0.016)

	f := cam.Forward()
	if f.X() <= 0 {
		t.Errorf("dragging right should turn right, forward=%v", f)
	}
}

func TestCameraControlsKeepOrientation(t *testing.T) {
	cam := testCamera()
	cam.LookAt(mgl32.Vec3{-1, 0, 0}, core.Up)
	cc := NewCameraControls(cam, 2)

	dev := &fakeDevice{keys: map[int]bool{core.KeyW: true}, buttons: map[int]bool{}}
	in := NewInput()
	in.Update(dev)
	cc.Update(in, 1)
	if !vecNear(cam.Position, mgl32.Vec3{-2, 0, 0}, 1e-4) {
		t.Errorf("expected to move along the existing view direction, got %v", cam.Position)
	}
}
