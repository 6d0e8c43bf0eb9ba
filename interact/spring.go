// Package interact turns pointer and keyboard input into camera motion and
// forces on picked bodies.
package interact

import (
	"math"
	"weak"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/physics"
	"physics-viewer/scene"
)

const (
	DefaultStiffness  = 100
	DefaultMaxImpulse = 20
)

// Spring drags one picked body toward a point held in front of the camera.
// It is Idle until Pick hits a dynamic body and Active until Release. A Pick
// while Active is ignored.
//
// The picked node is held weakly; if its scene is disposed and the node
// collected, the spring falls back to Idle on the next Step.
type Spring struct {
	// Stiffness and Damping are per unit mass. A zero Damping uses critical
	// damping for the given stiffness.
	Stiffness float32
	Damping   float32
	// MaxImpulse caps the velocity change applied in one step.
	MaxImpulse float32

	target   weak.Pointer[scene.Node]
	active   bool
	localHit mgl32.Vec3 // hit point in the body's frame
	localDir mgl32.Vec3 // pick ray in the camera's frame
	distance float32
}

func NewSpring() *Spring {
	return &Spring{
		Stiffness:  DefaultStiffness,
		MaxImpulse: DefaultMaxImpulse,
	}
}

func (sp *Spring) Active() bool {
	return sp.active
}

// Target returns the node carrying the held body, or nil when Idle.
func (sp *Spring) Target() *scene.Node {
	if !sp.active {
		return nil
	}
	return sp.target.Value()
}

// Pick casts a ray from camera through the pointer and grabs the dynamic
// body under it. It reports whether the spring became Active.
func (sp *Spring) Pick(s *scene.Scene, camera *scene.Camera, pointerX, pointerY, width, height float32) bool {
	if sp.active || camera == nil || width <= 0 || height <= 0 {
		return false
	}
	return sp.PickRay(s, camera, ScreenToRay(pointerX, pointerY, width, height, camera))
}

// PickRay is Pick with an explicit world-space ray starting at the camera.
func (sp *Spring) PickRay(s *scene.Scene, camera *scene.Camera, ray Ray) bool {
	if sp.active || camera == nil {
		return false
	}
	hit := RaycastScene(ray, s)
	if !hit.Hit {
		return false
	}
	owner, err := scene.BodyOwner(hit.Node)
	if err != nil || owner == nil || owner.Body.Motion != physics.MotionDynamic {
		return false
	}

	body := owner.Body
	sp.target = weak.Make(owner)
	sp.localHit = body.Orientation.Inverse().Rotate(hit.Point.Sub(body.Position))
	sp.localDir = camera.Rotation.Inverse().Rotate(ray.Direction)
	sp.distance = hit.Distance
	sp.active = true
	return true
}

// Release returns the spring to Idle. No force is applied afterwards.
func (sp *Spring) Release() {
	sp.active = false
	sp.target = weak.Pointer[scene.Node]{}
}

// Anchor is the point the held body is pulled toward: the pick ray,
// carried along with the camera, at the hit distance.
func (sp *Spring) Anchor(camera *scene.Camera) mgl32.Vec3 {
	return camera.Position.Add(camera.Rotation.Rotate(sp.localDir).Mul(sp.distance))
}

// Step applies one damped spring impulse toward the anchor. It is a no-op
// while Idle.
func (sp *Spring) Step(camera *scene.Camera, delta float32) {
	if !sp.active || camera == nil || delta <= 0 {
		return
	}
	node := sp.target.Value()
	if node == nil || node.Body == nil || node.Body.Motion != physics.MotionDynamic {
		sp.Release()
		return
	}
	body := node.Body

	point := body.Position.Add(body.Orientation.Rotate(sp.localHit))
	stretch := sp.Anchor(camera).Sub(point)
	velocity := body.PointVelocity(point)

	damping := sp.Damping
	if damping <= 0 {
		damping = 2 * float32(math.Sqrt(float64(sp.Stiffness)))
	}
	dv := stretch.Mul(sp.Stiffness * delta).Sub(velocity.Mul(min(damping*delta, 1)))
	if sp.MaxImpulse > 0 {
		if l := dv.Len(); l > sp.MaxImpulse {
			dv = dv.Mul(sp.MaxImpulse / l)
		}
	}
	body.ApplyImpulseAt(dv.Mul(body.Mass), point)
}
