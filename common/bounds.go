package common

import "math"

// Sphere is a bounding sphere used for frustum and light culling.
// Center is in the space implied by context: object space on a renderable
// descriptor, world space after the registry applies the transform.
type Sphere struct {
	Center [3]float32
	Radius float32
}

// TransformSphere applies a column-major 4x4 world matrix to an object-space
// bounding sphere. The radius is scaled by the largest axis scale so the result
// always encloses the transformed geometry, at the cost of being conservative
// under non-uniform scale.
//
// Parameters:
//   - m: world matrix (16 elements, column-major)
//   - s: object-space bounding sphere
//
// Returns:
//   - Sphere: the world-space bounding sphere
func TransformSphere(m []float32, s Sphere) Sphere {
	var out Sphere
	x, y, z := s.Center[0], s.Center[1], s.Center[2]
	out.Center[0] = m[0]*x + m[4]*y + m[8]*z + m[12]
	out.Center[1] = m[1]*x + m[5]*y + m[9]*z + m[13]
	out.Center[2] = m[2]*x + m[6]*y + m[10]*z + m[14]

	sx := m[0]*m[0] + m[1]*m[1] + m[2]*m[2]
	sy := m[4]*m[4] + m[5]*m[5] + m[6]*m[6]
	sz := m[8]*m[8] + m[9]*m[9] + m[10]*m[10]
	out.Radius = s.Radius * float32(math.Sqrt(float64(max(sx, max(sy, sz)))))
	return out
}

// DistanceSq returns the squared distance between two points.
//
// Parameters:
//   - a: first point
//   - b: second point
//
// Returns:
//   - float32: squared euclidean distance
func DistanceSq(a, b [3]float32) float32 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the euclidean distance between two points.
//
// Parameters:
//   - a: first point
//   - b: second point
//
// Returns:
//   - float32: euclidean distance
func Distance(a, b [3]float32) float32 {
	return float32(math.Sqrt(float64(DistanceSq(a, b))))
}
