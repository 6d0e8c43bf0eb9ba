package scene

import (
	"errors"
	"testing"

	"physics-viewer/physics"
)

// chain builds root -> ... -> leaf with depth nodes and returns them root first.
func chain(depth int) []*Node {
	nodes := make([]*Node, depth)
	for i := range nodes {
		nodes[i] = NewNode("n")
		if i > 0 {
			nodes[i-1].AddChild(nodes[i])
		}
	}
	return nodes
}

func TestIsDynamic(t *testing.T) {
	tests := []struct {
		name     string
		bodyAt   int // index in the chain, -1 for none
		motion   physics.MotionType
		expected bool
	}{
		{"body on leaf, dynamic", 3, physics.MotionDynamic, true},
		{"body on leaf, static", 3, physics.MotionStatic, false},
		{"body on parent, dynamic", 2, physics.MotionDynamic, true},
		{"body on root, static", 0, physics.MotionStatic, false},
		{"body on root, kinematic", 0, physics.MotionKinematic, true},
		{"no body", -1, physics.MotionDynamic, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := chain(4)
			if tt.bodyAt >= 0 {
				nodes[tt.bodyAt].Body = physics.NewBody(tt.motion, 1)
			}
			got, err := IsDynamic(nodes[3])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IsDynamic: expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBodyOwnerNearestWins(t *testing.T) {
	nodes := chain(3)
	nodes[0].Body = physics.NewBody(physics.MotionDynamic, 1)
	nodes[1].Body = physics.NewBody(physics.MotionStatic, 1)

	owner, err := BodyOwner(nodes[2])
	if err != nil {
		t.Fatal(err)
	}
	if owner != nodes[1] {
		t.Errorf("expected nearest ancestor to own the leaf, got %q", owner.Name)
	}
	if dynamic, _ := IsDynamic(nodes[2]); dynamic {
		t.Error("expected the static parent to shadow the dynamic root")
	}
}

func TestIsDynamicCycle(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	a.Parent = b
	b.Parent = a

	_, err := IsDynamic(a)
	if !errors.Is(err, ErrMalformedHierarchy) {
		t.Errorf("expected ErrMalformedHierarchy, got %v", err)
	}
}

func TestIsDynamicNil(t *testing.T) {
	got, err := IsDynamic(nil)
	if got || err != nil {
		t.Errorf("IsDynamic(nil): expected false, nil; got %v, %v", got, err)
	}
}
