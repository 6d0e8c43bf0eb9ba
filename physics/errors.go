package physics

import "errors"

var (
	// ErrDetached is returned when stepping a backend that was detached from its scene.
	ErrDetached = errors.New("physics: backend detached")

	// ErrNegativeDelta rejects a step with a negative time delta.
	ErrNegativeDelta = errors.New("physics: negative step delta")

	// ErrInvalidGravity rejects a gravity vector with NaN or Inf components.
	ErrInvalidGravity = errors.New("physics: gravity must be finite")
)
