// Package physics implements the rigid-body backend attached to a scene and
// the simulation clock that drives it.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MotionType decides how the integrator treats a body.
type MotionType int

const (
	MotionStatic MotionType = iota
	MotionDynamic
	MotionKinematic
)

func (m MotionType) String() string {
	switch m {
	case MotionStatic:
		return "static"
	case MotionDynamic:
		return "dynamic"
	case MotionKinematic:
		return "kinematic"
	}
	return "unknown"
}

// Body is a rigid body with a box collider. Position and Orientation are in
// world space.
type Body struct {
	Motion MotionType
	Mass   float32

	Position        mgl32.Vec3
	Orientation     mgl32.Quat
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3

	// HalfExtents of the axis-aligned collider. A zero box does not collide.
	HalfExtents mgl32.Vec3

	GravityFactor  float32
	LinearDamping  float32
	AngularDamping float32
	Restitution    float32
}

func NewBody(motion MotionType, mass float32) *Body {
	if mass <= 0 {
		mass = 1
	}
	return &Body{
		Motion:         motion,
		Mass:           mass,
		Orientation:    mgl32.QuatIdent(),
		GravityFactor:  1,
		LinearDamping:  0.05,
		AngularDamping: 0.1,
		Restitution:    0.2,
	}
}

// InverseMass is zero for bodies the solver may not push.
func (b *Body) InverseMass() float32 {
	if b.Motion != MotionDynamic || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// inverseInertia returns the local-space diagonal of a solid box's inverse
// inertia tensor. Bodies without a collider are treated as unit cubes.
func (b *Body) inverseInertia() mgl32.Vec3 {
	if b.InverseMass() == 0 {
		return mgl32.Vec3{}
	}
	h := b.HalfExtents
	if h.LenSqr() == 0 {
		h = mgl32.Vec3{0.5, 0.5, 0.5}
	}
	// I = m/3 * (b² + c²) for half extents a, b, c.
	k := b.Mass / 3
	ix := k * (h.Y()*h.Y() + h.Z()*h.Z())
	iy := k * (h.X()*h.X() + h.Z()*h.Z())
	iz := k * (h.X()*h.X() + h.Y()*h.Y())
	return mgl32.Vec3{safeInv(ix), safeInv(iy), safeInv(iz)}
}

func safeInv(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return 1 / v
}

// ApplyImpulse changes linear velocity only.
func (b *Body) ApplyImpulse(impulse mgl32.Vec3) {
	inv := b.InverseMass()
	if inv == 0 {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(impulse.Mul(inv))
}

// ApplyImpulseAt applies impulse at a world-space point, adding the angular
// term L = r x J through the world-space inverse inertia.
func (b *Body) ApplyImpulseAt(impulse, point mgl32.Vec3) {
	if b.InverseMass() == 0 {
		return
	}
	b.ApplyImpulse(impulse)

	torque := point.Sub(b.Position).Cross(impulse)
	local := b.Orientation.Inverse().Rotate(torque)
	invI := b.inverseInertia()
	dOmega := b.Orientation.Rotate(mgl32.Vec3{
		local.X() * invI.X(),
		local.Y() * invI.Y(),
		local.Z() * invI.Z(),
	})
	b.AngularVelocity = b.AngularVelocity.Add(dOmega)
}

// PointVelocity is the world-space velocity of a point rigidly attached to b.
func (b *Body) PointVelocity(point mgl32.Vec3) mgl32.Vec3 {
	r := point.Sub(b.Position)
	return b.LinearVelocity.Add(b.AngularVelocity.Cross(r))
}

// Bounds returns the world-space collider box.
func (b *Body) Bounds() (min, max mgl32.Vec3) {
	return b.Position.Sub(b.HalfExtents), b.Position.Add(b.HalfExtents)
}

func (b *Body) hasCollider() bool {
	return b.HalfExtents.X() > 0 && b.HalfExtents.Y() > 0 && b.HalfExtents.Z() > 0
}
