package scene

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"physics-viewer/core"
	"physics-viewer/physics"
)

// Extension names read by the importer. Unregistered glTF extensions decode
// as raw JSON, so each is unmarshalled here on demand.
const (
	extRigidBodies     = "KHR_physics_rigid_bodies"
	extImplicitShapes  = "KHR_implicit_shapes"
	extLightsPunctual  = "KHR_lights_punctual"
	extMSFTRigidBodies = "MSFT_rigid_bodies"
	extMSFTCollider    = "MSFT_collider"
)

type rigidMotion struct {
	IsKinematic     bool       `json:"isKinematic"`
	Mass            *float32   `json:"mass"`
	LinearVelocity  [3]float32 `json:"linearVelocity"`
	AngularVelocity [3]float32 `json:"angularVelocity"`
	GravityFactor   *float32   `json:"gravityFactor"`
}

type colliderGeometry struct {
	Shape *int `json:"shape"`
	Node  *int `json:"node"`
}

type rigidCollider struct {
	Geometry        colliderGeometry `json:"geometry"`
	PhysicsMaterial *int             `json:"physicsMaterial"`
}

type nodeRigidBody struct {
	Motion   *rigidMotion   `json:"motion"`
	Collider *rigidCollider `json:"collider"`
}

type physicsMaterial struct {
	Restitution *float32 `json:"restitution"`
}

type docRigidBodies struct {
	PhysicsMaterials []physicsMaterial `json:"physicsMaterials"`
}

type implicitShape struct {
	Type string `json:"type"`
	Box  *struct {
		Size [3]float32 `json:"size"`
	} `json:"box"`
	Sphere *struct {
		Radius float32 `json:"radius"`
	} `json:"sphere"`
	Capsule *struct {
		Height       float32 `json:"height"`
		RadiusTop    float32 `json:"radiusTop"`
		RadiusBottom float32 `json:"radiusBottom"`
	} `json:"capsule"`
	Cylinder *struct {
		Height       float32 `json:"height"`
		RadiusTop    float32 `json:"radiusTop"`
		RadiusBottom float32 `json:"radiusBottom"`
	} `json:"cylinder"`
}

type docImplicitShapes struct {
	Shapes []implicitShape `json:"shapes"`
}

type msftRigidBody struct {
	RigidBody *rigidMotion `json:"rigidBody"`
}

type msftCollider struct {
	Collider *struct {
		Box *struct {
			Size [3]float32 `json:"size"`
		} `json:"box"`
		Sphere *struct {
			Radius float32 `json:"radius"`
		} `json:"sphere"`
	} `json:"collider"`
}

type punctualLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color"`
	Intensity *float32    `json:"intensity"`
	Range     float32     `json:"range"`
	Spot      *struct {
		InnerConeAngle float32  `json:"innerConeAngle"`
		OuterConeAngle *float32 `json:"outerConeAngle"`
	} `json:"spot"`
}

type docLights struct {
	Lights []punctualLight `json:"lights"`
}

type nodeLight struct {
	Light *int `json:"light"`
}

// decodeExtension unmarshals ext[name] into v and reports whether the
// extension was present.
func decodeExtension(ext gltf.Extensions, name string, v any) (bool, error) {
	raw, ok := ext[name]
	if !ok || raw == nil {
		return false, nil
	}
	var data []byte
	switch r := raw.(type) {
	case json.RawMessage:
		data = r
	case []byte:
		data = r
	default:
		var err error
		if data, err = json.Marshal(r); err != nil {
			return true, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

// physicsTables holds the document-level tables the per-node extensions
// index into.
type physicsTables struct {
	materials []physicsMaterial
	shapes    []implicitShape
	lights    []punctualLight
}

func readPhysicsTables(doc *gltf.Document) (physicsTables, error) {
	var t physicsTables
	var bodies docRigidBodies
	if _, err := decodeExtension(doc.Extensions, extRigidBodies, &bodies); err != nil {
		return t, err
	}
	t.materials = bodies.PhysicsMaterials

	var shapes docImplicitShapes
	if _, err := decodeExtension(doc.Extensions, extImplicitShapes, &shapes); err != nil {
		return t, err
	}
	t.shapes = shapes.Shapes

	var lights docLights
	if _, err := decodeExtension(doc.Extensions, extLightsPunctual, &lights); err != nil {
		return t, err
	}
	t.lights = lights.Lights
	return t, nil
}

// halfExtents returns the local half extents of an implicit shape's
// bounding box.
func (s implicitShape) halfExtents() (mgl32.Vec3, bool) {
	switch {
	case s.Box != nil:
		return mgl32.Vec3{s.Box.Size[0], s.Box.Size[1], s.Box.Size[2]}.Mul(0.5), true
	case s.Sphere != nil:
		r := s.Sphere.Radius
		return mgl32.Vec3{r, r, r}, true
	case s.Capsule != nil:
		r := max(s.Capsule.RadiusTop, s.Capsule.RadiusBottom)
		return mgl32.Vec3{r, s.Capsule.Height/2 + r, r}, true
	case s.Cylinder != nil:
		r := max(s.Cylinder.RadiusTop, s.Cylinder.RadiusBottom)
		return mgl32.Vec3{r, s.Cylinder.Height / 2, r}, true
	}
	return mgl32.Vec3{}, false
}

// bodySpec is the physics description of a single glTF node, independent of
// which extension declared it.
type bodySpec struct {
	motion       *rigidMotion
	hasCollider  bool
	halfExtents  mgl32.Vec3
	hasExtents   bool
	colliderNode *int
	restitution  *float32
}

// readNodeBody parses the rigid body extensions on gn. The second result is
// false when the node declares neither a motion nor a collider.
func readNodeBody(gn *gltf.Node, tables physicsTables) (bodySpec, bool, error) {
	var spec bodySpec

	var khr nodeRigidBody
	found, err := decodeExtension(gn.Extensions, extRigidBodies, &khr)
	if err != nil {
		return spec, false, err
	}
	if found {
		spec.motion = khr.Motion
		if c := khr.Collider; c != nil {
			spec.hasCollider = true
			spec.colliderNode = c.Geometry.Node
			if idx := c.Geometry.Shape; idx != nil {
				if *idx < 0 || *idx >= len(tables.shapes) {
					return spec, false, fmt.Errorf("%s: shape %d out of range", extRigidBodies, *idx)
				}
				spec.halfExtents, spec.hasExtents = tables.shapes[*idx].halfExtents()
			}
			if idx := c.PhysicsMaterial; idx != nil && *idx >= 0 && *idx < len(tables.materials) {
				spec.restitution = tables.materials[*idx].Restitution
			}
		}
		return spec, spec.motion != nil || spec.hasCollider, nil
	}

	var msft msftRigidBody
	if _, err := decodeExtension(gn.Extensions, extMSFTRigidBodies, &msft); err != nil {
		return spec, false, err
	}
	spec.motion = msft.RigidBody
	var col msftCollider
	if _, err := decodeExtension(gn.Extensions, extMSFTCollider, &col); err != nil {
		return spec, false, err
	}
	if c := col.Collider; c != nil {
		spec.hasCollider = true
		switch {
		case c.Box != nil:
			spec.halfExtents = mgl32.Vec3{c.Box.Size[0], c.Box.Size[1], c.Box.Size[2]}.Mul(0.5)
			spec.hasExtents = true
		case c.Sphere != nil:
			r := c.Sphere.Radius
			spec.halfExtents = mgl32.Vec3{r, r, r}
			spec.hasExtents = true
		}
	}
	return spec, spec.motion != nil || spec.hasCollider, nil
}

// newBody builds a physics body from spec. A node with a collider but no
// motion is static.
func (spec bodySpec) newBody() *physics.Body {
	motion := physics.MotionStatic
	var mass float32 = 1
	if m := spec.motion; m != nil {
		motion = physics.MotionDynamic
		if m.IsKinematic {
			motion = physics.MotionKinematic
		}
		if m.Mass != nil {
			mass = *m.Mass
		}
	}
	b := physics.NewBody(motion, mass)
	if m := spec.motion; m != nil {
		b.LinearVelocity = m.LinearVelocity
		b.AngularVelocity = m.AngularVelocity
		if m.GravityFactor != nil {
			b.GravityFactor = *m.GravityFactor
		}
	}
	if spec.restitution != nil {
		b.Restitution = *spec.restitution
	}
	return b
}

func (l punctualLight) toLight() *Light {
	out := &Light{
		Name:      l.Name,
		Color:     core.ColorWhite,
		Intensity: 1,
		Range:     l.Range,
	}
	switch l.Type {
	case "point":
		out.Type = LightPoint
	case "spot":
		out.Type = LightSpot
		out.OuterConeAngle = mgl32.DegToRad(45)
		if l.Spot != nil {
			out.InnerConeAngle = l.Spot.InnerConeAngle
			if l.Spot.OuterConeAngle != nil {
				out.OuterConeAngle = *l.Spot.OuterConeAngle
			}
		}
	default:
		out.Type = LightDirectional
	}
	if l.Color != nil {
		out.Color.R, out.Color.G, out.Color.B = l.Color[0], l.Color[1], l.Color[2]
	}
	if l.Intensity != nil {
		out.Intensity = *l.Intensity
	}
	return out
}
