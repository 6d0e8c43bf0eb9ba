package scene

import (
	"errors"
	"fmt"

	"physics-viewer/physics"
)

// MaxDepth bounds the parent walk. Deeper chains are treated as cyclic.
const MaxDepth = 1024

var ErrMalformedHierarchy = errors.New("scene: malformed hierarchy")

// BodyOwner walks from n toward the root and returns the first node carrying
// a physics body, or nil when the chain ends without one.
func BodyOwner(n *Node) (*Node, error) {
	for hops := 0; n != nil; hops++ {
		if hops > MaxDepth {
			return nil, fmt.Errorf("%w: no root within %d hops", ErrMalformedHierarchy, MaxDepth)
		}
		if n.Body != nil {
			return n, nil
		}
		n = n.Parent
	}
	return nil, nil
}

// IsDynamic reports whether n, or its nearest ancestor carrying a body, is
// attached to a non-static body. Nodes without any body are static.
func IsDynamic(n *Node) (bool, error) {
	owner, err := BodyOwner(n)
	if err != nil || owner == nil {
		return false, err
	}
	return owner.Body.Motion != physics.MotionStatic, nil
}
