package camera

import (
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
)

// projectionKind selects how the projection matrix is built.
type projectionKind int

const (
	projectionPerspective projectionKind = iota
	projectionOrthographic
)

type cameraImpl struct {
	mu *sync.Mutex

	kind projectionKind

	position [3]float32
	target   [3]float32
	up       [3]float32

	// Perspective parameters.
	fov    float32
	aspect float32
	near   float32
	far    float32

	// Orthographic extents.
	left, right, bottom, top float32

	dirty                bool
	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
}

// Camera defines the interface for a camera used to cull and draw a frame or
// an individual layer. The camera holds projection settings and recomputes its
// matrices lazily whenever a setter invalidates them.
// Thread-safe for concurrent access.
type Camera interface {
	// Position returns the camera position in world space.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix
	// as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Frustum extracts the six culling planes from the current view-projection
	// matrix. Planes are normalized with the positive half-space inside.
	//
	// Returns:
	//   - common.Frustum: the extracted frustum
	Frustum() common.Frustum

	// SetPosition sets the camera position in world space.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetTarget sets the point the camera looks at.
	//
	// Parameters:
	//   - x, y, z: target components
	SetTarget(x, y, z float32)

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetAspect sets the viewport aspect ratio (width / height) for
	// perspective cameras. No-op for orthographic cameras.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)
}

// Ensure cameraImpl implements Camera interface.
var _ Camera = &cameraImpl{}

// NewCamera creates a camera. Without options the camera is perspective with a
// 60 degree vertical field of view, 16:9 aspect, near 0.1 and far 1000,
// positioned at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure projection and placement
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		kind:   projectionPerspective,
		target: [3]float32{0, 0, -1},
		up:     [3]float32{0, 1, 0},
		fov:    1.0472, // 60 degrees
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    1000,
		dirty:  true,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// recompute rebuilds the view, projection, and combined matrices.
// Callers must hold c.mu.
func (c *cameraImpl) recompute() {
	if !c.dirty {
		return
	}
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)
	switch c.kind {
	case projectionOrthographic:
		common.Orthographic(c.projectionMatrix[:], c.left, c.right, c.bottom, c.top, c.near, c.far)
	default:
		common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	}
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	c.dirty = false
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.dirty = true
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.dirty = true
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.dirty = true
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != projectionPerspective || aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.dirty = true
}
