package light

import (
	"sort"
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
)

// StaticContribution is the precomputed lighting artifact for one layer:
// baked ambient irradiance plus an optional lightmap texture. It is produced
// at bake time and only looked up, never recomputed, at frame time.
type StaticContribution struct {
	// Ambient is the baked irradiance color applied uniformly to the layer.
	Ambient [3]float32

	// Lightmap references the baked lightmap texture, or 0 when none exists.
	Lightmap common.TextureID
}

// aggregatorImpl is the implementation of the Aggregator interface.
type aggregatorImpl struct {
	mu         *sync.RWMutex
	lights     []Light
	static     map[layer.ID]StaticContribution
	maxPerDraw int
}

// scored pairs a light with its truncation priority for one camera.
type scored struct {
	light Light
	score float32
	order int
}

// Aggregator selects the lights relevant to one layer of one frame. Dynamic
// lights are frustum-culled like renderables and truncated to the configured
// per-draw maximum by a closest-and-brightest priority; static light is a
// per-layer baked artifact looked up by layer ID. Truncation is a policy, not
// a failure.
// Thread-safe for concurrent access.
type Aggregator interface {
	// Add registers a light. Registration order is the deterministic
	// tie-break when two lights score equally.
	//
	// Parameters:
	//   - l: the light to register
	Add(l Light)

	// Remove unregisters a light by identity. Removing an unregistered light
	// is a no-op.
	//
	// Parameters:
	//   - l: the light to unregister
	Remove(l Light)

	// SetStaticContribution stores the baked lighting artifact for a layer.
	// Called at bake time, never during a frame.
	//
	// Parameters:
	//   - id: the layer the bake belongs to
	//   - sc: the baked contribution
	SetStaticContribution(id layer.ID, sc StaticContribution)

	// ActiveLights returns the layer's baked contribution and the culled,
	// prioritized dynamic lights for the current camera.
	//
	// Parameters:
	//   - id: the layer being rendered
	//   - frustum: the layer camera's frustum
	//   - cameraPos: the layer camera's world-space position
	//
	// Returns:
	//   - StaticContribution: the baked artifact (zero value when never baked)
	//   - []Light: dynamic lights, highest priority first, capped per config
	ActiveLights(id layer.ID, frustum common.Frustum, cameraPos [3]float32) (StaticContribution, []Light)

	// Len returns the number of registered lights, static and dynamic.
	//
	// Returns:
	//   - int: the registered count
	Len() int
}

// Ensure aggregatorImpl implements Aggregator interface.
var _ Aggregator = &aggregatorImpl{}

// NewAggregator creates an empty light aggregator. Without options the
// dynamic light list is uncapped; forward pipelines should configure
// WithMaxPerDraw to their shader's light budget.
//
// Parameters:
//   - options: functional options for the per-draw light cap
//
// Returns:
//   - Aggregator: the newly created aggregator
func NewAggregator(options ...AggregatorBuilderOption) Aggregator {
	a := &aggregatorImpl{
		mu:     &sync.RWMutex{},
		static: make(map[layer.ID]StaticContribution),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *aggregatorImpl) Add(l Light) {
	if l == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lights = append(a.lights, l)
}

func (a *aggregatorImpl) Remove(l Light) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, have := range a.lights {
		if have == l {
			a.lights = append(a.lights[:i], a.lights[i+1:]...)
			return
		}
	}
}

func (a *aggregatorImpl) SetStaticContribution(id layer.ID, sc StaticContribution) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.static[id] = sc
}

func (a *aggregatorImpl) ActiveLights(id layer.ID, frustum common.Frustum, cameraPos [3]float32) (StaticContribution, []Light) {
	a.mu.RLock()
	sc := a.static[id]
	candidates := make([]scored, 0, len(a.lights))
	for i, l := range a.lights {
		if !l.Enabled() || l.Static() {
			continue
		}
		if !inFrustum(l, frustum) {
			continue
		}
		candidates = append(candidates, scored{
			light: l,
			score: priority(l, cameraPos),
			order: i,
		})
	}
	a.mu.RUnlock()

	// Closest-and-brightest first; registration order breaks ties so the
	// truncated list is a deterministic function of the inputs.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	if a.maxPerDraw > 0 && len(candidates) > a.maxPerDraw {
		candidates = candidates[:a.maxPerDraw]
	}

	out := make([]Light, len(candidates))
	for i := range candidates {
		out[i] = candidates[i].light
	}
	return sc, out
}

func (a *aggregatorImpl) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.lights)
}

// inFrustum culls a light against the camera frustum. Directional lights have
// no position and always pass; point and spot lights are tested as a sphere
// of their attenuation range.
func inFrustum(l Light, frustum common.Frustum) bool {
	if l.Type() == LightTypeDirectional {
		return true
	}
	return frustum.IntersectsSphere(common.Sphere{
		Center: l.Position(),
		Radius: l.Range(),
	})
}

// priority scores a light for truncation: intensity over one plus squared
// camera distance, so nearby bright lights survive first. Directional lights
// rank at distance zero.
func priority(l Light, cameraPos [3]float32) float32 {
	if l.Type() == LightTypeDirectional {
		return l.Intensity()
	}
	return l.Intensity() / (1 + common.DistanceSq(l.Position(), cameraPos))
}
