package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"physics-viewer/scene"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// HitResult stores the result of a ray intersection test
type HitResult struct {
	Hit      bool
	Distance float32
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Node     *scene.Node
	FaceIdx  int // triangle index in the mesh
}

// ScreenToRay converts a screen-space pointer position to a world-space ray
func ScreenToRay(pointerX, pointerY, screenWidth, screenHeight float32, camera *scene.Camera) Ray {
	ndcX := (2.0*pointerX)/screenWidth - 1.0
	ndcY := 1.0 - (2.0*pointerY)/screenHeight // flip Y

	invViewProj := camera.ViewProjectionMatrix().Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, invViewProj)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, invViewProj)

	return Ray{
		Origin:    camera.Position,
		Direction: far.Sub(near).Normalize(),
	}
}

// CenterRay is the ray through the middle of the viewport.
func CenterRay(camera *scene.Camera) Ray {
	return Ray{Origin: camera.Position, Direction: camera.Forward()}
}

// RaycastScene tests a ray against all visible, pickable meshes in the scene
// and returns the closest hit.
func RaycastScene(ray Ray, s *scene.Scene) HitResult {
	closestHit := HitResult{Distance: math.MaxFloat32}

	for _, node := range s.Meshes() {
		if !node.Visible || !node.Pickable {
			continue
		}
		worldMatrix := node.WorldMatrix()

		// Broad phase: AABB test
		aabb := scene.ComputeAABB(node.Mesh, worldMatrix)
		t, hit := rayAABBIntersect(ray, aabb)
		if !hit || t > closestHit.Distance {
			continue
		}

		// Narrow phase: triangle test
		result := rayMeshIntersect(ray, node, worldMatrix)
		if result.Hit && result.Distance < closestHit.Distance {
			closestHit = result
		}
	}

	return closestHit
}

// rayAABBIntersect tests ray-AABB intersection using the slab method.
func rayAABBIntersect(ray Ray, aabb scene.AABB) (float32, bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		if ray.Direction[i] == 0 {
			if ray.Origin[i] < aabb.Min[i] || ray.Origin[i] > aabb.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / ray.Direction[i]
		t1 := (aabb.Min[i] - ray.Origin[i]) * inv
		t2 := (aabb.Max[i] - ray.Origin[i]) * inv
		tmin = max(tmin, min(t1, t2))
		tmax = min(tmax, max(t1, t2))
	}

	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	return tmin, true
}

// rayMeshIntersect performs per-triangle intersection using Möller–Trumbore algorithm
func rayMeshIntersect(ray Ray, node *scene.Node, worldMatrix mgl32.Mat4) HitResult {
	mesh := node.Mesh
	closest := HitResult{Distance: math.MaxFloat32}

	for i := 0; i < mesh.Triangles(); i++ {
		a, b, c := mesh.Triangle(i)
		v0 := mgl32.TransformCoordinate(a, worldMatrix)
		v1 := mgl32.TransformCoordinate(b, worldMatrix)
		v2 := mgl32.TransformCoordinate(c, worldMatrix)

		t, hit := mollerTrumbore(ray, v0, v1, v2)
		if hit && t < closest.Distance {
			closest.Hit = true
			closest.Distance = t
			closest.Point = ray.At(t)
			closest.Normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
			closest.Node = node
			closest.FaceIdx = i
		}
	}

	return closest
}

// mollerTrumbore implements the Möller–Trumbore ray-triangle intersection algorithm
func mollerTrumbore(ray Ray, v0, v1, v2 mgl32.Vec3) (float32, bool) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return 0, false // parallel
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	return t, t > epsilon
}
