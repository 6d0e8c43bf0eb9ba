package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/scene"
)

// SpeedScale is applied to the configured base speed when controls are
// attached to a camera.
const SpeedScale = 0.1

const maxPitch = 1.5

// CameraControls is a free camera: W/S and the up/down arrows move along the
// view direction, A/D and the side arrows strafe, Q/E rise and sink, and a
// right-button drag looks around.
type CameraControls struct {
	Speed     float32 // units per second
	LookSpeed float32 // radians per pixel

	camera     *scene.Camera
	yaw, pitch float32
}

// NewCameraControls attaches controls to camera, keeping its current
// orientation.
func NewCameraControls(camera *scene.Camera, speed float32) *CameraControls {
	f := camera.Forward()
	cc := &CameraControls{
		Speed:     speed,
		LookSpeed: 0.003,
		camera:    camera,
		pitch:     float32(math.Asin(float64(mgl32.Clamp(f.Y(), -1, 1)))),
		yaw:       float32(math.Atan2(float64(-f.X()), float64(-f.Z()))),
	}
	camera.Controls = true
	return cc
}

func (cc *CameraControls) Camera() *scene.Camera {
	return cc.camera
}

// Update moves the camera from the current input state.
func (cc *CameraControls) Update(in *Input, delta float32) {
	if in.IsMouseDown(core.MouseRight) && !in.IsMousePressed(core.MouseRight) {
		cc.yaw -= float32(in.MouseDeltaX) * cc.LookSpeed
		cc.pitch -= float32(in.MouseDeltaY) * cc.LookSpeed
		cc.pitch = mgl32.Clamp(cc.pitch, -maxPitch, maxPitch)
		cc.camera.SetRotation(mgl32.QuatRotate(cc.yaw, core.Up).Mul(mgl32.QuatRotate(cc.pitch, core.Right)))
	}

	var move mgl32.Vec3
	forward, right := cc.camera.Forward(), cc.camera.Right()
	if in.IsKeyDown(core.KeyW) || in.IsKeyDown(core.KeyArrowUp) {
		move = move.Add(forward)
	}
	if in.IsKeyDown(core.KeyS) || in.IsKeyDown(core.KeyArrowDown) {
		move = move.Sub(forward)
	}
	if in.IsKeyDown(core.KeyD) || in.IsKeyDown(core.KeyArrowRight) {
		move = move.Add(right)
	}
	if in.IsKeyDown(core.KeyA) || in.IsKeyDown(core.KeyArrowLeft) {
		move = move.Sub(right)
	}
	if in.IsKeyDown(core.KeyQ) {
		move = move.Add(core.Up)
	}
	if in.IsKeyDown(core.KeyE) {
		move = move.Sub(core.Up)
	}
	if move.LenSqr() > 0 {
		cc.camera.Translate(move.Normalize().Mul(cc.Speed * delta))
	}
}
