package light

import "sync"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis, controlled by
	// inner and outer cone angles.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.RWMutex

	lightType    LightType
	position     [3]float32
	direction    [3]float32
	color        [3]float32
	intensity    float32
	lightRange   float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	enabled      bool
	static       bool
	castsShadows bool
}

// Light defines the interface for a light source.
//
// Static lights contribute precomputed (baked) irradiance consumed at bake
// time; they are excluded from the per-frame dynamic light list the
// Aggregator hands to the pipeline. Dynamic lights are culled and prioritized
// every frame.
// Thread-safe for concurrent access.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	// Beyond this distance the light contributes zero energy. Meaningless for
	// directional lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	// Meaningless for directional and point lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	// Meaningless for directional and point lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active.
	// Disabled lights are skipped by the Aggregator.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// Static returns whether this light's contribution is precomputed at bake
	// time instead of recomputed every frame.
	//
	// Returns:
	//   - bool: true if static
	Static() bool

	// CastsShadows returns whether this light is eligible for shadow map
	// generation by the binding layer.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetEnabled sets whether the light is active.
	//
	// Parameters:
	//   - enabled: true to enable the light
	SetEnabled(enabled bool)
}

// Ensure lightImpl implements Light interface.
var _ Light = &lightImpl{}

// NewLight creates a Light of the given type. Without options the light is
// dynamic, enabled, white, intensity 1, range 10, pointing down -Y.
//
// Parameters:
//   - lightType: the kind of light source
//   - options: functional options to further configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:         &sync.RWMutex{},
		lightType:  lightType,
		direction:  [3]float32{0, -1, 0},
		color:      [3]float32{1, 1, 1},
		intensity:  1,
		lightRange: 10,
		enabled:    true,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) Static() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.static
}

func (l *lightImpl) CastsShadows() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.castsShadows
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}
