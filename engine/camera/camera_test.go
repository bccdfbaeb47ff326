package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/prism-go/common"
)

func TestPerspectiveFrustum(t *testing.T) {
	cam := NewCamera() // origin, looking down -Z, far 1000

	f := cam.Frustum()
	assert.True(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{0, 0, -10}, Radius: 1}))
	assert.False(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{0, 0, 10}, Radius: 1}), "behind the camera")
	assert.False(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{0, 0, -2000}, Radius: 1}), "beyond the far plane")

	// A sphere straddling a plane still intersects.
	assert.True(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{0, 0, -1005}, Radius: 10}))
}

func TestOrthographicFrustum(t *testing.T) {
	// Screen-pixel mapping for a 1280x720 UI layer.
	cam := NewCamera(WithOrthographic(0, 1280, 720, 0, -1, 1))

	f := cam.Frustum()
	assert.True(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{640, 360, 0}, Radius: 1}))
	assert.False(t, f.IntersectsSphere(common.Sphere{Center: [3]float32{2000, 360, 0}, Radius: 1}))
}

func TestSettersInvalidate(t *testing.T) {
	cam := NewCamera(WithPosition(0, 0, 5))

	before := cam.ViewProjectionMatrix()
	cam.SetPosition(0, 0, 50)
	after := cam.ViewProjectionMatrix()

	assert.NotEqual(t, before, after)
	assert.Equal(t, [3]float32{0, 0, 50}, cam.Position())
}

func TestFrustumFollowsCamera(t *testing.T) {
	cam := NewCamera()
	target := common.Sphere{Center: [3]float32{0, 0, -10}, Radius: 1}

	f := cam.Frustum()
	assert.True(t, f.IntersectsSphere(target))

	// Turn the camera around; the same sphere is now behind it.
	cam.SetTarget(0, 0, 1)
	f = cam.Frustum()
	assert.False(t, f.IntersectsSphere(target))
}
