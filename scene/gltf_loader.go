package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"physics-viewer/core"
)

// MaxAssetBytes caps the size of a remote asset download.
const MaxAssetBytes = 256 << 20

// GLTFImporter loads .glb / .gltf assets from a local path or an http(s) URL.
// Import does not touch any live scene; the returned Asset is merged by the
// caller.
type GLTFImporter struct {
	Client *http.Client
	Logger *log.Logger
}

func (im *GLTFImporter) logger() *log.Logger {
	if im.Logger == nil {
		return log.Default()
	}
	return im.Logger
}

// Import fetches and decodes the asset at source.
func (im *GLTFImporter) Import(ctx context.Context, source string) (*Asset, error) {
	doc, err := im.open(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildAsset(source, doc, im.logger())
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (im *GLTFImporter) open(ctx context.Context, source string) (*gltf.Document, error) {
	if !isRemote(source) {
		doc, err := gltf.Open(source)
		if err != nil {
			return nil, fmt.Errorf("gltf open %q: %w", source, err)
		}
		return doc, nil
	}

	client := im.Client
	if client == nil {
		client = http.DefaultClient
	}
	data, err := download(ctx, client, source)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("gltf source %q: %w", source, err)
	}
	doc := new(gltf.Document)
	dir := remoteDir{ctx: ctx, client: client, base: base}
	if err := gltf.NewDecoderFS(bytes.NewReader(data), dir).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf decode %q: %w", source, err)
	}
	return doc, nil
}

func download(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("gltf request %q: %w", source, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gltf fetch %q: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gltf fetch %q: unexpected status %s", source, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetBytes))
	if err != nil {
		return nil, fmt.Errorf("gltf read %q: %w", source, err)
	}
	return data, nil
}

// remoteDir serves the external buffers of a remote .gltf, resolving their
// URIs against the document's URL.
type remoteDir struct {
	ctx    context.Context
	client *http.Client
	base   *url.URL
}

func (d remoteDir) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: errors.ErrUnsupported}
}

func (d remoteDir) ReadFile(name string) ([]byte, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return download(d.ctx, d.client, d.base.ResolveReference(ref).String())
}

// BuildAsset converts a decoded document into a detached node graph with
// cameras, lights and rigid bodies. Primitives that fail to load are logged
// and skipped; malformed physics extensions fail the whole asset.
func BuildAsset(source string, doc *gltf.Document, logger *log.Logger) (*Asset, error) {
	if logger == nil {
		logger = log.Default()
	}
	asset := &Asset{Source: source}

	tables, err := readPhysicsTables(doc)
	if err != nil {
		return nil, err
	}

	// meshPrims[meshIdx] = one entry per primitive
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				logger.Printf("[gltf] mesh %d prim %d: %v", mi, pi, err)
				continue
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)
		n.Transform = nodeTransform(gn)

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
			case 1:
				n.Mesh = prims[0]
			default:
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	hasParent := make([]bool, len(nodes))
	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx >= len(nodes) || hasParent[childIdx] {
				continue
			}
			if isAncestor(nodes[childIdx], nodes[i]) {
				logger.Printf("[gltf] node %d: child %d would form a cycle", i, childIdx)
				continue
			}
			nodes[i].AddChild(nodes[childIdx])
			hasParent[childIdx] = true
		}
	}

	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				asset.Roots = append(asset.Roots, nodes[rootIdx])
			}
		}
	} else {
		for i, n := range nodes {
			if !hasParent[i] {
				asset.Roots = append(asset.Roots, n)
			}
		}
	}

	// World transforms are valid from here on.
	for i, gn := range doc.Nodes {
		n := nodes[i]
		if gn.Camera != nil && *gn.Camera < len(doc.Cameras) {
			if cam := buildCamera(doc.Cameras[*gn.Camera], n); cam != nil {
				asset.Cameras = append(asset.Cameras, cam)
			} else {
				logger.Printf("[gltf] camera %d: only perspective cameras are supported", *gn.Camera)
			}
		}

		var nl nodeLight
		if _, err := decodeExtension(gn.Extensions, extLightsPunctual, &nl); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		if nl.Light != nil && *nl.Light >= 0 && *nl.Light < len(tables.lights) {
			l := tables.lights[*nl.Light].toLight()
			if l.Name == "" {
				l.Name = n.Name
			}
			l.Position = n.WorldPosition()
			l.Direction = n.WorldRotation().Rotate(core.Forward)
			asset.Lights = append(asset.Lights, l)
		}

		spec, ok, err := readNodeBody(gn, tables)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		if !ok {
			continue
		}
		body := spec.newBody()
		body.HalfExtents = colliderExtents(spec, n, nodes)
		n.Body = body
	}

	return asset, nil
}

// colliderExtents resolves the world-scaled half extents of a node's
// collider: an implicit shape, the referenced collider node's mesh, or the
// node's own mesh, in that order.
func colliderExtents(spec bodySpec, n *Node, nodes []*Node) mgl32.Vec3 {
	var local mgl32.Vec3
	switch {
	case spec.hasExtents:
		local = spec.halfExtents
	case spec.colliderNode != nil && *spec.colliderNode >= 0 && *spec.colliderNode < len(nodes):
		local = meshHalfExtents(nodes[*spec.colliderNode])
	default:
		local = meshHalfExtents(n)
	}
	scale := worldScale(n)
	return mgl32.Vec3{local[0] * scale[0], local[1] * scale[1], local[2] * scale[2]}
}

func meshHalfExtents(n *Node) mgl32.Vec3 {
	if n.Mesh != nil && n.Mesh.HasLocalAABB {
		return n.Mesh.LocalAABB.HalfExtents()
	}
	var out mgl32.Vec3
	for _, c := range n.Children {
		if c.Mesh != nil && c.Mesh.HasLocalAABB {
			h := c.Mesh.LocalAABB.HalfExtents()
			for i := 0; i < 3; i++ {
				out[i] = max(out[i], h[i])
			}
		}
	}
	return out
}

func worldScale(n *Node) mgl32.Vec3 {
	m := n.WorldMatrix()
	return mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// isAncestor reports whether a is n or one of its ancestors.
func isAncestor(a, n *Node) bool {
	for hops := 0; n != nil && hops <= MaxDepth; hops++ {
		if n == a {
			return true
		}
		n = n.Parent
	}
	return false
}

// nodeTransform reads TRS, decomposing an explicit matrix when one is set.
func nodeTransform(gn *gltf.Node) core.Transform {
	t := core.NewTransform()
	if gn.Matrix != identityMatrix && gn.Matrix != ([16]float64{}) {
		var m mgl32.Mat4
		for i, v := range gn.Matrix {
			m[i] = float32(v)
		}
		t.Position = m.Col(3).Vec3()
		sx, sy, sz := m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()
		t.Scale = mgl32.Vec3{sx, sy, sz}
		if sx > 0 && sy > 0 && sz > 0 {
			rot := mgl32.Mat3FromCols(m.Col(0).Vec3().Mul(1/sx), m.Col(1).Vec3().Mul(1/sy), m.Col(2).Vec3().Mul(1/sz))
			t.Rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
		}
		return t
	}

	tr := gn.TranslationOrDefault()
	t.Position = mgl32.Vec3{float32(tr[0]), float32(tr[1]), float32(tr[2])}
	sc := gn.ScaleOrDefault()
	t.Scale = mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])}
	r := gn.RotationOrDefault() // [x, y, z, w]
	t.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return t
}

func buildCamera(gc *gltf.Camera, n *Node) *Camera {
	p := gc.Perspective
	if p == nil {
		return nil
	}
	aspect := float32(16.0 / 9.0)
	if p.AspectRatio != nil {
		aspect = float32(*p.AspectRatio)
	}
	far := float32(100)
	if p.Zfar != nil {
		far = float32(*p.Zfar)
	}
	cam := NewCamera(float32(p.Yfov), aspect, float32(p.Znear), far)
	cam.Name = gc.Name
	if cam.Name == "" {
		cam.Name = n.Name
	}
	cam.Position = n.WorldPosition()
	cam.Rotation = n.WorldRotation()
	return cam
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: p,
			Normal:   core.Up,
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}
