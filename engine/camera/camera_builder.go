package camera

// CameraBuilderOption is a function that configures a Camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPerspective is an option builder that configures a perspective projection.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - aspect: viewport aspect ratio (width / height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - CameraBuilderOption: a function that applies the perspective option to a cameraImpl
func WithPerspective(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.kind = projectionPerspective
		c.fov = fov
		c.aspect = aspect
		c.near = near
		c.far = far
		c.dirty = true
	}
}

// WithOrthographic is an option builder that configures an orthographic
// projection. A UI layer camera maps screen pixels directly to clip space with
// WithOrthographic(0, width, height, 0, -1, 1).
//
// Parameters:
//   - left, right: x extents of the view volume
//   - bottom, top: y extents of the view volume
//   - near, far: z extents of the view volume
//
// Returns:
//   - CameraBuilderOption: a function that applies the orthographic option to a cameraImpl
func WithOrthographic(left, right, bottom, top, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.kind = projectionOrthographic
		c.left = left
		c.right = right
		c.bottom = bottom
		c.top = top
		c.near = near
		c.far = far
		c.dirty = true
	}
}

// WithPosition is an option builder that sets the camera position in world space.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - CameraBuilderOption: a function that applies the position option to a cameraImpl
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
		c.dirty = true
	}
}

// WithTarget is an option builder that sets the point the camera looks at.
//
// Parameters:
//   - x, y, z: target components
//
// Returns:
//   - CameraBuilderOption: a function that applies the target option to a cameraImpl
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
		c.dirty = true
	}
}

// WithUp is an option builder that sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that applies the up option to a cameraImpl
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
		c.dirty = true
	}
}
