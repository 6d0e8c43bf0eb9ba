package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
)

// Camera represents a perspective view camera. FOV is the vertical field of
// view in radians.
type Camera struct {
	Name        string
	Position    mgl32.Vec3
	Rotation    mgl32.Quat
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Controls is set when the viewer has attached free-camera input.
	Controls bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Rotation:    mgl32.QuatIdent(),
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
	}
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
}

func (c *Camera) SetRotation(rot mgl32.Quat) {
	c.Rotation = rot.Normalize()
}

func (c *Camera) Translate(delta mgl32.Vec3) {
	c.Position = c.Position.Add(delta)
}

// LookAt orients the camera so that Forward points at target.
func (c *Camera) LookAt(target, up mgl32.Vec3) {
	forward := target.Sub(c.Position)
	if forward.LenSqr() == 0 {
		return
	}
	forward = forward.Normalize()
	right := forward.Cross(up)
	if right.LenSqr() < 1e-8 {
		right = core.Right
	}
	right = right.Normalize()
	upNew := right.Cross(forward)

	basis := mgl32.Mat3FromCols(right, upNew, forward.Mul(-1))
	c.Rotation = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.Rotation.Rotate(core.Forward)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Rotation.Rotate(core.Right)
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.Rotation.Rotate(core.Up)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), c.Up())
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}
