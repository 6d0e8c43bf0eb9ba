// Package shadow decides which meshes cast and receive shadows and owns the
// per-light shadow map resources.
package shadow

import (
	"errors"
	"fmt"
	"log"

	"physics-viewer/scene"
)

// DefaultMapSize is the resolution of every shadow map.
const DefaultMapSize = 1024

// Map is a depth render target allocated for one light.
type Map interface {
	Size() int
	Release() error
}

// MapAllocator creates shadow maps. The GL backend implements it; tests use
// a counting fake.
type MapAllocator interface {
	Allocate(size int) (Map, error)
}

// Caster is a mesh drawn into a light's shadow map.
type Caster struct {
	Node       *scene.Node
	SelfShadow bool
}

// Generator renders one light's shadow map from its casters.
type Generator struct {
	Light           *scene.Light
	Map             Map
	PoissonSampling bool
	Casters         []Caster

	released bool
}

// AddCaster registers n once; repeated calls update its self-shadow flag.
func (g *Generator) AddCaster(n *scene.Node, selfShadow bool) {
	for i := range g.Casters {
		if g.Casters[i].Node == n {
			g.Casters[i].SelfShadow = selfShadow
			return
		}
	}
	g.Casters = append(g.Casters, Caster{Node: n, SelfShadow: selfShadow})
}

// Dispose releases the shadow map. It is safe to call more than once.
func (g *Generator) Dispose() error {
	if g.released {
		return nil
	}
	g.released = true
	g.Casters = nil
	if g.Map == nil {
		return nil
	}
	if err := g.Map.Release(); err != nil {
		return fmt.Errorf("shadow map for %q: %w", g.Light.Name, err)
	}
	return nil
}

// Assigner partitions scene geometry into casters and receivers. The policy
// is a heuristic: geometry driven by a non-static body casts, everything
// else only receives, so fully static scenes have no visible shadows.
type Assigner struct {
	Allocator       MapAllocator
	MapSize         int
	PoissonSampling bool
	Logger          *log.Logger
}

func NewAssigner(alloc MapAllocator, logger *log.Logger) *Assigner {
	return &Assigner{
		Allocator:       alloc,
		MapSize:         DefaultMapSize,
		PoissonSampling: true,
		Logger:          logger,
	}
}

// Assign creates one generator per light in s, registers dynamic meshes as
// self-shadowing casters on every generator and marks static meshes as
// receivers.
// The generators are owned by s and released when it is disposed. On
// allocation failure nothing is left allocated.
func (a *Assigner) Assign(s *scene.Scene) ([]*Generator, error) {
	if len(s.Lights) == 0 {
		return nil, nil
	}
	logger := a.Logger
	if logger == nil {
		logger = log.Default()
	}
	size := a.MapSize
	if size <= 0 {
		size = DefaultMapSize
	}

	meshes := s.Meshes()
	dynamic := make([]bool, len(meshes))
	for i, n := range meshes {
		d, err := scene.IsDynamic(n)
		if err != nil {
			logger.Printf("[shadow] %s: %v, treating as static", n.Name, err)
			d = false
		}
		dynamic[i] = d
	}

	generators := make([]*Generator, 0, len(s.Lights))
	for _, l := range s.Lights {
		m, err := a.Allocator.Allocate(size)
		if err != nil {
			var errs []error
			for _, g := range generators {
				errs = append(errs, g.Dispose())
			}
			return nil, errors.Join(append([]error{fmt.Errorf("allocate shadow map for %q: %w", l.Name, err)}, errs...)...)
		}
		g := &Generator{Light: l, Map: m, PoissonSampling: a.PoissonSampling}
		for i, n := range meshes {
			if dynamic[i] {
				g.AddCaster(n, true)
			} else {
				n.Mesh.ReceiveShadows = true
			}
		}
		generators = append(generators, g)
	}

	for _, g := range generators {
		s.Own(g)
	}
	return generators, nil
}
