package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/event"
	"physics-viewer/physics"
)

// ErrPhysicsAttached is returned when a second clock is attached to a scene.
var ErrPhysicsAttached = errors.New("scene: physics already attached")

// Disposer is a resource whose lifetime follows the scene that owns it.
type Disposer interface {
	Dispose() error
}

type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	}
	return "unknown"
}

// Light represents a light source. Position and Direction are in world space.
type Light struct {
	Name           string
	Type           LightType
	Position       mgl32.Vec3
	Direction      mgl32.Vec3
	Color          core.Color
	Intensity      float32
	Range          float32
	InnerConeAngle float32
	OuterConeAngle float32
}

// Environment describes the backdrop drawn behind the scene.
type Environment struct {
	TextureURL string
	SkyColor   core.Color
	Ambient    core.Color
	SkyboxSize float32
}

// Asset is the detached result of an import. It is built off the frame loop
// and merged into a scene on it.
type Asset struct {
	Source  string
	Roots   []*Node
	Cameras []*Camera
	Lights  []*Light
}

// Scene manages the node tree, cameras, lights and the physics clock that
// drives its bodies. A scene owns everything reachable from it; Dispose
// releases it all.
type Scene struct {
	Root         *Node
	Cameras      []*Camera
	ActiveCamera *Camera
	Lights       []*Light
	Environment  Environment

	// Keyboard receives key events routed to this scene.
	Keyboard event.Observable[core.KeyEvent]
	// BeforeRender is notified once per frame after physics has stepped.
	BeforeRender event.Observable[float32]

	physics  *physics.Clock
	owned    []Disposer
	disposed bool
}

func DefaultEnvironment() Environment {
	return Environment{
		SkyColor:   core.Color{R: 0.5, G: 0.7, B: 1.0, A: 1.0},
		Ambient:    core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		SkyboxSize: 1000,
	}
}

func New() *Scene {
	return &Scene{
		Root:        NewNode("Root"),
		Lights:      make([]*Light, 0),
		Environment: DefaultEnvironment(),
	}
}

// SetPhysics attaches clock as the scene's physics backend.
func (s *Scene) SetPhysics(clock *physics.Clock) error {
	if s.disposed {
		return physics.ErrDetached
	}
	if s.physics != nil && !s.physics.Disposed() {
		return ErrPhysicsAttached
	}
	s.physics = clock
	return nil
}

func (s *Scene) Physics() *physics.Clock {
	return s.physics
}

// Own ties d's lifetime to the scene. Owned resources are disposed in reverse
// order of registration.
func (s *Scene) Own(d Disposer) {
	s.owned = append(s.owned, d)
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

func (s *Scene) AddCamera(camera *Camera) {
	s.Cameras = append(s.Cameras, camera)
	if s.ActiveCamera == nil {
		s.ActiveCamera = camera
	}
}

func (s *Scene) SetActiveCamera(camera *Camera) {
	s.ActiveCamera = camera
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

// Merge adds an imported asset to the scene and seeds every imported body
// from its node's world pose.
func (s *Scene) Merge(a *Asset) {
	for _, root := range a.Roots {
		s.AddNode(root)
	}
	s.Cameras = append(s.Cameras, a.Cameras...)
	s.Lights = append(s.Lights, a.Lights...)
	for _, root := range a.Roots {
		root.Traverse(func(n *Node) { n.SyncToBody() })
	}
}

// Meshes returns every node carrying a mesh, in depth-first order.
func (s *Scene) Meshes() []*Node {
	var out []*Node
	s.Root.Traverse(func(n *Node) {
		if n.Mesh != nil {
			out = append(out, n)
		}
	})
	return out
}

// Bodies returns every physics body in the scene, in depth-first order.
func (s *Scene) Bodies() []*physics.Body {
	var out []*physics.Body
	s.Root.Traverse(func(n *Node) {
		if n.Body != nil {
			out = append(out, n.Body)
		}
	})
	return out
}

// SyncBodies copies simulated poses back onto their nodes.
func (s *Scene) SyncBodies() {
	s.Root.Traverse(func(n *Node) {
		if n.Body != nil && n.Body.Motion != physics.MotionStatic {
			n.SyncFromBody()
		}
	})
}

// StepPhysics advances the physics clock by delta and syncs the results into
// the node tree. A scene without physics is a no-op.
func (s *Scene) StepPhysics(delta float32) error {
	if s.physics == nil {
		return nil
	}
	if err := s.physics.Step(delta, s.Bodies()); err != nil {
		return err
	}
	if !s.physics.Paused() {
		s.SyncBodies()
	}
	return nil
}

// Dispose tears the scene down: the physics clock first, then owned
// resources, then observers, then the node tree. It is safe to call twice.
func (s *Scene) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true

	var errs []error
	if s.physics != nil {
		if err := s.physics.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("physics: %w", err))
		}
	}
	for i := len(s.owned) - 1; i >= 0; i-- {
		if err := s.owned[i].Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	s.owned = nil

	s.Keyboard.Clear()
	s.BeforeRender.Clear()

	for _, child := range append([]*Node(nil), s.Root.Children...) {
		s.Root.RemoveChild(child)
	}
	s.Cameras = nil
	s.ActiveCamera = nil
	s.Lights = nil
	return errors.Join(errs...)
}

func (s *Scene) Disposed() bool {
	return s.disposed
}
