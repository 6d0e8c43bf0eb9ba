package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultGravity points down the Y axis.
var DefaultGravity = mgl32.Vec3{0, -9.81, 0}

// Backend advances one scene's bodies. A backend is attached to exactly one
// scene and is never reused after Detach.
type Backend interface {
	IntegrateStep(delta float32, bodies []*Body) error
	Detach() error
}

// Engine hands out backends and tracks how many are still attached.
type Engine struct {
	live int
}

func NewEngine() *Engine {
	return &Engine{}
}

// Attach creates a world with the given gravity.
func (e *Engine) Attach(gravity mgl32.Vec3) (Backend, error) {
	for i := 0; i < 3; i++ {
		g := float64(gravity[i])
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return nil, fmt.Errorf("attach %v: %w", gravity, ErrInvalidGravity)
		}
	}
	e.live++
	return &World{Gravity: gravity, engine: e}, nil
}

// Live reports attached backends.
func (e *Engine) Live() int {
	return e.live
}

// World integrates bodies with semi-implicit Euler and resolves box overlaps
// by minimum-penetration push-out.
type World struct {
	Gravity mgl32.Vec3

	engine   *Engine
	detached bool
}

func (w *World) Detach() error {
	if w.detached {
		return nil
	}
	w.detached = true
	if w.engine != nil {
		w.engine.live--
	}
	return nil
}

func (w *World) Detached() bool {
	return w.detached
}

func (w *World) IntegrateStep(delta float32, bodies []*Body) error {
	if w.detached {
		return ErrDetached
	}
	if delta <= 0 {
		return nil
	}

	for _, b := range bodies {
		switch b.Motion {
		case MotionDynamic:
			b.LinearVelocity = b.LinearVelocity.Add(w.Gravity.Mul(b.GravityFactor * delta))
			b.LinearVelocity = b.LinearVelocity.Mul(1 / (1 + delta*b.LinearDamping))
			b.AngularVelocity = b.AngularVelocity.Mul(1 / (1 + delta*b.AngularDamping))
			integrate(b, delta)
		case MotionKinematic:
			integrate(b, delta)
		}
	}

	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			resolve(bodies[i], bodies[j])
		}
	}
	return nil
}

func integrate(b *Body, delta float32) {
	b.Position = b.Position.Add(b.LinearVelocity.Mul(delta))
	if b.AngularVelocity.LenSqr() == 0 {
		return
	}
	spin := mgl32.Quat{W: 0, V: b.AngularVelocity}.Mul(b.Orientation).Scale(0.5 * delta)
	b.Orientation = b.Orientation.Add(spin).Normalize()
}

// penetration returns the overlap depth and axis (0=X, 1=Y, 2=Z) of the
// minimum-penetration direction, or axis -1 when the boxes are apart.
func penetration(a, b *Body) (depth float32, axis int) {
	aMin, aMax := a.Bounds()
	bMin, bMax := b.Bounds()
	axis = -1
	for i := 0; i < 3; i++ {
		overlap := min(aMax[i], bMax[i]) - max(aMin[i], bMin[i])
		if overlap <= 0 {
			return 0, -1
		}
		if axis == -1 || overlap < depth {
			depth = overlap
			axis = i
		}
	}
	return depth, axis
}

func resolve(a, b *Body) {
	invA, invB := a.InverseMass(), b.InverseMass()
	if invA+invB == 0 || !a.hasCollider() || !b.hasCollider() {
		return
	}
	depth, axis := penetration(a, b)
	if axis < 0 {
		return
	}

	var normal mgl32.Vec3
	if a.Position[axis] < b.Position[axis] {
		normal[axis] = -1
	} else {
		normal[axis] = 1
	}
	// normal points from b towards a.
	total := invA + invB
	a.Position = a.Position.Add(normal.Mul(depth * invA / total))
	b.Position = b.Position.Sub(normal.Mul(depth * invB / total))

	relative := a.LinearVelocity.Sub(b.LinearVelocity).Dot(normal)
	if relative >= 0 {
		return
	}
	e := min(a.Restitution, b.Restitution)
	j := -(1 + e) * relative / total
	a.LinearVelocity = a.LinearVelocity.Add(normal.Mul(j * invA))
	b.LinearVelocity = b.LinearVelocity.Sub(normal.Mul(j * invB))
}
