package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance from a point to the plane.
// Positive values are on the side the normal points to.
//
// Parameters:
//   - p: the point to test
//
// Returns:
//   - float32: the signed distance
func (pl Plane) SignedDistance(p [3]float32) float32 {
	return pl.Normal[0]*p[0] + pl.Normal[1]*p[1] + pl.Normal[2]*p[2] + pl.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined View * Projection matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// For column-major matrix M, row r is the elements viewProj[c*4+r] for
	// c in 0..3. Each pair of frustum planes is row3 +/- row{0,1,2}.
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r3 := row(3)
	for i := 0; i < 3; i++ {
		ri := row(i)
		// Plus plane (left, bottom, near) then minus plane (right, top, far).
		plus := &f.Planes[i*2]
		minus := &f.Planes[i*2+1]
		for c := 0; c < 3; c++ {
			plus.Normal[c] = r3[c] + ri[c]
			minus.Normal[c] = r3[c] - ri[c]
		}
		plus.Distance = r3[3] + ri[3]
		minus.Distance = r3[3] - ri[3]
	}

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// IntersectsSphere reports whether a world-space bounding sphere is fully or
// partially inside the frustum. A sphere is rejected only when it lies entirely
// outside at least one plane, the standard conservative six-plane test.
//
// Parameters:
//   - s: the world-space bounding sphere
//
// Returns:
//   - bool: true if the sphere overlaps the frustum
func (f *Frustum) IntersectsSphere(s Sphere) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}
