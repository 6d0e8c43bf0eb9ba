package physics

import (
	"fmt"

	"physics-viewer/event"
)

// Clock wraps a Backend and owns the decision of whether a frame advances
// the simulation. Pausing freezes accumulated time exactly; steps taken while
// paused are dropped, not queued.
type Clock struct {
	// PreStep is notified with the delta before every integration step.
	PreStep event.Observable[float32]

	backend     Backend
	paused      bool
	accumulated float64
	steps       uint64
	disposed    bool
}

func NewClock(backend Backend) *Clock {
	return &Clock{backend: backend}
}

// Step advances bodies by delta unless the clock is paused. Integration
// errors are returned as-is; there is no retry.
func (c *Clock) Step(delta float32, bodies []*Body) error {
	if delta < 0 {
		return fmt.Errorf("step %v: %w", delta, ErrNegativeDelta)
	}
	if c.paused {
		return nil
	}
	if c.disposed {
		return ErrDetached
	}
	c.accumulated += float64(delta)
	c.steps++
	c.PreStep.Notify(delta)
	return c.backend.IntegrateStep(delta, bodies)
}

func (c *Clock) Pause()  { c.paused = true }
func (c *Clock) Resume() { c.paused = false }

func (c *Clock) SetPaused(paused bool) { c.paused = paused }

func (c *Clock) Paused() bool { return c.paused }

// AccumulatedTime is the sum of every delta that reached the backend.
func (c *Clock) AccumulatedTime() float64 { return c.accumulated }

// Steps counts integration steps taken.
func (c *Clock) Steps() uint64 { return c.steps }

func (c *Clock) Backend() Backend { return c.backend }

// Dispose detaches the backend and drops PreStep observers. It is safe to
// call more than once.
func (c *Clock) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.PreStep.Clear()
	if err := c.backend.Detach(); err != nil {
		return fmt.Errorf("detach physics backend: %w", err)
	}
	return nil
}

func (c *Clock) Disposed() bool { return c.disposed }
