// Package viewer owns the current scene and swaps it, physics included,
// while the frame loop keeps running.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/core"
	"physics-viewer/interact"
	"physics-viewer/physics"
	"physics-viewer/scene"
	"physics-viewer/shadow"
)

// PhysicsEngine attaches a fresh backend for each scene.
type PhysicsEngine interface {
	Attach(gravity mgl32.Vec3) (physics.Backend, error)
}

// Importer loads an asset into a detached node graph. It runs off the frame
// loop and must not touch any live scene.
type Importer interface {
	Import(ctx context.Context, source string) (*scene.Asset, error)
}

// ShadowAssigner sets up shadow casters and receivers for a loaded scene.
type ShadowAssigner interface {
	Assign(s *scene.Scene) ([]*shadow.Generator, error)
}

// Surface is the window the viewer reads the pointer and polled keys from.
type Surface interface {
	interact.Device
	Size() (float32, float32)
}

// Options configures scene construction and input bindings.
type Options struct {
	Gravity mgl32.Vec3

	CameraPosition mgl32.Vec3
	CameraTarget   mgl32.Vec3
	FOV            float32
	Near, Far      float32
	// CameraSpeed is the base speed; controls move at SpeedScale of it.
	CameraSpeed float32

	Environment scene.Environment

	PickKey  int
	PauseKey int

	SpringStiffness  float32
	SpringDamping    float32
	SpringMaxImpulse float32
}

func DefaultOptions() Options {
	return Options{
		Gravity:          physics.DefaultGravity,
		CameraPosition:   mgl32.Vec3{0.1, 1.8, 1.3},
		CameraTarget:     mgl32.Vec3{-0.2, 0.8, -0.3},
		FOV:              0.8,
		Near:             0.01,
		Far:              100,
		CameraSpeed:      20,
		Environment:      scene.DefaultEnvironment(),
		PickKey:          core.KeySpace,
		PauseKey:         core.KeyP,
		SpringStiffness:  interact.DefaultStiffness,
		SpringMaxImpulse: interact.DefaultMaxImpulse,
	}
}

type importResult struct {
	asset *scene.Asset
	err   error
}

// pendingLoad is an import in flight for the current scene.
type pendingLoad struct {
	generation uint64
	url        string
	scene      *scene.Scene
	results    chan importResult
	done       chan error
	cancel     context.CancelFunc
}

// Controller owns the current scene. All methods except the import goroutine
// it starts run on the frame loop goroutine, so there is no locking; import
// results are handed back through a channel and applied in Frame.
type Controller struct {
	engine   PhysicsEngine
	importer Importer
	shadows  ShadowAssigner
	opts     Options
	logger   *log.Logger

	current    *scene.Scene
	generators []*shadow.Generator
	controls   *interact.CameraControls
	spring     *interact.Spring
	input      *interact.Input
	surface    Surface
	userPaused bool

	generation uint64
	pending    *pendingLoad
}

func New(engine PhysicsEngine, importer Importer, shadows ShadowAssigner, opts Options, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	sp := interact.NewSpring()
	sp.Stiffness = opts.SpringStiffness
	sp.Damping = opts.SpringDamping
	sp.MaxImpulse = opts.SpringMaxImpulse
	return &Controller{
		engine:   engine,
		importer: importer,
		shadows:  shadows,
		opts:     opts,
		logger:   logger,
		spring:   sp,
		input:    interact.NewInput(),
	}
}

// AttachSurface routes polled input and pointer picks through s. Without a
// surface, picks go through the centre of the view.
func (c *Controller) AttachSurface(s Surface) {
	c.surface = s
}

func (c *Controller) Current() *scene.Scene { return c.current }

func (c *Controller) Spring() *interact.Spring { return c.spring }

// Shadows returns the shadow generators of the current scene. They are
// released with it.
func (c *Controller) Shadows() []*shadow.Generator { return c.generators }

func (c *Controller) Controls() *interact.CameraControls { return c.controls }

// Loading reports whether an import is in flight.
func (c *Controller) Loading() bool { return c.pending != nil }

// LoadScene replaces the current scene with an empty one, attaches a new
// physics clock and starts importing source in the background. The returned
// channel receives exactly one value once the load settles: nil,
// *ImportError, *PhysicsAttachError, or an error wrapping ErrSuperseded.
func (c *Controller) LoadScene(ctx context.Context, source string) <-chan error {
	done := make(chan error, 1)
	c.supersede(ErrSuperseded)

	if c.current != nil {
		if err := c.current.Dispose(); err != nil {
			c.logger.Printf("[viewer] dispose scene: %v", err)
		}
	}
	c.spring.Release()

	s := c.newEmptyScene()
	c.current = s
	c.generators = nil

	backend, err := c.engine.Attach(c.opts.Gravity)
	if err != nil {
		c.logger.Printf("[viewer] load %q: attach physics: %v", source, err)
		done <- &PhysicsAttachError{Err: err}
		return done
	}
	if err := attachClock(s, backend); err != nil {
		c.logger.Printf("[viewer] load %q: %v", source, err)
		done <- err
		return done
	}

	c.generation++
	ctx, cancel := context.WithCancel(ctx)
	p := &pendingLoad{
		generation: c.generation,
		url:        source,
		scene:      s,
		results:    make(chan importResult, 1),
		done:       done,
		cancel:     cancel,
	}
	c.pending = p
	c.syncPause()

	go func() {
		asset, err := c.importer.Import(ctx, source)
		p.results <- importResult{asset: asset, err: err}
	}()
	c.logger.Printf("[viewer] loading %s", source)
	return done
}

// attachClock binds backend to s. On failure the backend is detached so it
// does not count as live.
func attachClock(s *scene.Scene, backend physics.Backend) error {
	err := s.SetPhysics(physics.NewClock(backend))
	if err == nil {
		return nil
	}
	if derr := backend.Detach(); derr != nil {
		err = errors.Join(err, fmt.Errorf("detach physics backend: %w", derr))
	}
	return &PhysicsAttachError{Err: err}
}

// supersede abandons the pending load, if any.
func (c *Controller) supersede(reason error) {
	p := c.pending
	if p == nil {
		return
	}
	c.pending = nil
	p.cancel()
	p.done <- fmt.Errorf("load %q: %w", p.url, reason)
}

// newEmptyScene builds a scene with the default camera and environment and
// binds the pick spring to its keyboard and render hooks.
func (c *Controller) newEmptyScene() *scene.Scene {
	s := scene.New()
	s.Environment = c.opts.Environment

	aspect := float32(16.0 / 9.0)
	if c.surface != nil {
		if w, h := c.surface.Size(); w > 0 && h > 0 {
			aspect = w / h
		}
	}
	cam := scene.NewCamera(c.opts.FOV, aspect, c.opts.Near, c.opts.Far)
	cam.Name = "default"
	cam.SetPosition(c.opts.CameraPosition)
	cam.LookAt(c.opts.CameraTarget, core.Up)
	s.AddCamera(cam)
	c.controls = interact.NewCameraControls(cam, c.opts.CameraSpeed*interact.SpeedScale)

	s.Keyboard.Add(func(ev core.KeyEvent) {
		if ev.Key != c.opts.PickKey {
			return
		}
		switch ev.Type {
		case core.KeyDown:
			c.pick(s)
		case core.KeyUp:
			c.spring.Release()
		}
	})
	s.BeforeRender.Add(func(delta float32) {
		// Impulses would pile up unintegrated on a paused clock.
		if clock := s.Physics(); clock != nil && clock.Paused() {
			return
		}
		c.spring.Step(s.ActiveCamera, delta)
	})
	return s
}

func (c *Controller) pick(s *scene.Scene) {
	cam := s.ActiveCamera
	if cam == nil {
		return
	}
	if c.surface == nil {
		c.spring.PickRay(s, cam, interact.CenterRay(cam))
		return
	}
	x, y := c.surface.GetCursorPos()
	w, h := c.surface.Size()
	c.spring.Pick(s, cam, float32(x), float32(y), w, h)
}

// Frame applies a finished import, moves the camera, steps physics and runs
// the scene's before-render hooks.
func (c *Controller) Frame(delta float32) {
	c.pollImport()

	if c.surface != nil {
		c.input.Update(c.surface)
		if c.controls != nil {
			c.controls.Update(c.input, delta)
		}
	}

	s := c.current
	if s == nil {
		return
	}
	if cam := s.ActiveCamera; cam != nil && c.surface != nil {
		cam.UpdateAspectRatio(c.surface.Size())
	}
	if err := s.StepPhysics(delta); err != nil {
		c.logger.Printf("[viewer] physics step: %v", err)
	}
	s.BeforeRender.Notify(delta)
}

func (c *Controller) pollImport() {
	p := c.pending
	if p == nil {
		return
	}
	select {
	case r := <-p.results:
		c.finishLoad(p, r)
	default:
	}
}

func (c *Controller) finishLoad(p *pendingLoad, r importResult) {
	c.pending = nil
	p.cancel()
	if p.scene != c.current || p.generation != c.generation {
		p.done <- fmt.Errorf("load %q: %w", p.url, ErrSuperseded)
		return
	}
	s := p.scene

	var loadErr error
	if r.err != nil {
		loadErr = &ImportError{URL: p.url, Err: r.err}
		c.logger.Printf("[viewer] %v", loadErr)
	} else {
		s.Merge(r.asset)
		if len(r.asset.Cameras) > 0 {
			cam := r.asset.Cameras[0]
			if c.surface != nil {
				cam.UpdateAspectRatio(c.surface.Size())
			}
			s.SetActiveCamera(cam)
			c.controls = interact.NewCameraControls(cam, c.opts.CameraSpeed*interact.SpeedScale)
		}
		c.logger.Printf("[viewer] loaded %s: %d bodies, %d meshes, %d lights",
			p.url, len(s.Bodies()), len(s.Meshes()), len(s.Lights))
	}

	if c.shadows != nil {
		gens, err := c.shadows.Assign(s)
		if err != nil {
			c.logger.Printf("[viewer] shadows: %v", err)
		}
		c.generators = gens
	}
	c.syncPause()
	p.done <- loadErr
}

// HandleKey routes a discrete key event to the current scene.
func (c *Controller) HandleKey(ev core.KeyEvent) {
	if ev.Type == core.KeyDown && ev.Key == c.opts.PauseKey {
		c.TogglePause()
		return
	}
	if c.current != nil {
		c.current.Keyboard.Notify(ev)
	}
}

// Pause stops physics stepping. Rendering and input continue.
func (c *Controller) Pause() {
	c.userPaused = true
	c.syncPause()
}

func (c *Controller) Resume() {
	c.userPaused = false
	c.syncPause()
}

func (c *Controller) TogglePause() {
	c.userPaused = !c.userPaused
	c.syncPause()
}

// Paused reports whether the user has paused the simulation.
func (c *Controller) Paused() bool { return c.userPaused }

// syncPause keeps the clock paused while the user asked for it or while an
// import is in flight, so late-arriving bodies do not see a time jump.
func (c *Controller) syncPause() {
	if c.current == nil || c.current.Physics() == nil {
		return
	}
	c.current.Physics().SetPaused(c.userPaused || c.pending != nil)
}

// Dispose abandons any pending load and disposes the current scene.
func (c *Controller) Dispose() error {
	c.supersede(ErrClosed)
	c.spring.Release()
	if c.current == nil {
		return nil
	}
	err := c.current.Dispose()
	c.current = nil
	c.generators = nil
	c.controls = nil
	return err
}
