package core

import (
	"log"
	"sync"
	"time"
)

// DefaultMaxDelta caps the delta handed to callbacks after a stall
// (window drag, breakpoint, slow import parse).
const DefaultMaxDelta = 0.1

type frameCallback struct {
	id int
	fn func(delta float32)
}

// FrameLoop fans one display refresh out to registered callbacks. Callbacks
// run on the goroutine that calls Frame; Post is the only method that may be
// called from other goroutines.
type FrameLoop struct {
	MaxDelta float32

	callbacks []frameCallback
	nextID    int
	last      time.Time
	started   bool

	mu     sync.Mutex
	posted []func()

	logger *log.Logger
}

func NewFrameLoop(logger *log.Logger) *FrameLoop {
	if logger == nil {
		logger = log.Default()
	}
	return &FrameLoop{
		MaxDelta: DefaultMaxDelta,
		logger:   logger,
	}
}

// Register adds fn to the per-frame callbacks and returns a function that
// removes it again.
func (l *FrameLoop) Register(fn func(delta float32)) (unregister func()) {
	l.nextID++
	id := l.nextID
	l.callbacks = append(l.callbacks, frameCallback{id: id, fn: fn})
	return func() {
		for i, cb := range l.callbacks {
			if cb.id == id {
				l.callbacks = append(l.callbacks[:i:i], l.callbacks[i+1:]...)
				return
			}
		}
	}
}

// Post queues fn to run at the start of the next frame on the loop goroutine.
func (l *FrameLoop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Frame runs one iteration. The first frame has a zero delta.
func (l *FrameLoop) Frame(now time.Time) {
	var delta float32
	if l.started {
		delta = float32(now.Sub(l.last).Seconds())
		if delta < 0 {
			delta = 0
		}
		if l.MaxDelta > 0 && delta > l.MaxDelta {
			delta = l.MaxDelta
		}
	}
	l.last = now
	l.started = true

	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		l.run("posted", fn)
	}

	callbacks := make([]frameCallback, len(l.callbacks))
	copy(callbacks, l.callbacks)
	for _, cb := range callbacks {
		l.run("callback", func() { cb.fn(delta) })
	}
}

func (l *FrameLoop) run(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("[frame] %s panicked: %v", kind, r)
		}
	}()
	fn()
}

// Len reports the number of registered callbacks.
func (l *FrameLoop) Len() int {
	return len(l.callbacks)
}
