package scene

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// physicsFixture is a small glTF with a static ground, a dynamic crate whose
// mesh lives on a child node, a directional light and a perspective camera.
// The single mesh is a triangle (0,0,0) (1,0,0) (0,2,0).
const physicsFixture = `{
  "asset": {"version": "2.0"},
  "extensionsUsed": ["KHR_physics_rigid_bodies", "KHR_implicit_shapes", "KHR_lights_punctual"],
  "extensions": {
    "KHR_implicit_shapes": {"shapes": [{"type": "box", "box": {"size": [2, 2, 2]}}]},
    "KHR_physics_rigid_bodies": {"physicsMaterials": [{"restitution": 0.5}]},
    "KHR_lights_punctual": {"lights": [{"type": "directional", "intensity": 3}]}
  },
  "scene": 0,
  "scenes": [{"nodes": [0, 1, 3, 4]}],
  "nodes": [
    {"name": "ground", "mesh": 0,
     "extensions": {"KHR_physics_rigid_bodies": {"collider": {"geometry": {"shape": 0}, "physicsMaterial": 0}}}},
    {"name": "crate", "translation": [0, 3, 0], "children": [2],
     "extensions": {"KHR_physics_rigid_bodies": {"motion": {"mass": 2}, "collider": {"geometry": {"shape": 0}}}}},
    {"name": "crate_mesh", "mesh": 0},
    {"name": "sun", "rotation": [-0.70710677, 0, 0, 0.70710677],
     "extensions": {"KHR_lights_punctual": {"light": 0}}},
    {"name": "eye", "translation": [0, 1, 5], "camera": 0}
  ],
  "cameras": [{"type": "perspective", "perspective": {"yfov": 0.8, "znear": 0.05}}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{"byteLength": 44, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAAEAAAAAAAAABAAIAAAA="}]
}`

func decodeFixture(t *testing.T, src string) *gltf.Document {
	t.Helper()
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(strings.NewReader(src)).Decode(doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return doc
}
