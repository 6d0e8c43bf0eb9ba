package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is delivered to a load that was replaced by a newer one
	// before its import finished.
	ErrSuperseded = errors.New("viewer: load superseded")
	// ErrClosed is delivered to a pending load when the controller is disposed.
	ErrClosed = errors.New("viewer: controller closed")
)

// ImportError reports an asset that could not be fetched or parsed. The
// empty scene created for the load stays current.
type ImportError struct {
	URL string
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %q: %v", e.URL, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// PhysicsAttachError reports a physics backend that could not be attached to
// a new scene. The import for that load is not started.
type PhysicsAttachError struct {
	Err error
}

func (e *PhysicsAttachError) Error() string {
	return fmt.Sprintf("attach physics: %v", e.Err)
}

func (e *PhysicsAttachError) Unwrap() error {
	return e.Err
}
