package layer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/camera"
)

// MaskBits is the fixed bitmask width of the layer system. Declaring more than
// MaskBits layers fails with ErrCapacityExceeded.
const MaskBits = 64

// ID identifies a declared layer. IDs are assigned sequentially at declaration
// time and remain stable for the process lifetime.
type ID uint32

// Mask is a fixed-width bit-set of layer memberships. A renderable carrying
// mask Debug|Opaque is drawn under both layers.
type Mask uint64

// Union returns the set union of two masks.
//
// Returns:
//   - Mask: all bits set in either mask
func (m Mask) Union(o Mask) Mask { return m | o }

// Intersect returns the set intersection of two masks.
//
// Returns:
//   - Mask: the bits set in both masks
func (m Mask) Intersect(o Mask) Mask { return m & o }

// Contains reports whether every bit of o is also set in m.
//
// Returns:
//   - bool: true if o is a subset of m
func (m Mask) Contains(o Mask) bool { return m&o == o }

// Overlaps reports whether the two masks share at least one bit.
//
// Returns:
//   - bool: true if the intersection is non-empty
func (m Mask) Overlaps(o Mask) bool { return m&o != 0 }

// Setup-time failures. These are configuration errors: callers must treat them
// as fatal and never retry with the same input.
var (
	// ErrDuplicateLayer is returned by SetOrder when an ID appears more than once.
	ErrDuplicateLayer = errors.New("layer: duplicate layer in order")

	// ErrUnknownLayer is returned when an ID was never declared.
	ErrUnknownLayer = errors.New("layer: unknown layer")

	// ErrCapacityExceeded is returned by Declare once all MaskBits bits are taken.
	ErrCapacityExceeded = errors.New("layer: capacity exceeded")

	// ErrIncompleteOrder is returned by SetOrder when the sequence omits a
	// declared layer. The draw order is a total order over every declared
	// layer; use SetEnabled to exclude a layer from rendering instead.
	ErrIncompleteOrder = errors.New("layer: order must list every declared layer")
)

// registryImpl is the implementation of the Registry interface.
type registryImpl struct {
	mu     *sync.RWMutex
	layers []record
	order  []ID
}

// record holds the per-layer state owned by the registry.
type record struct {
	name    string
	enabled bool
	target  common.TargetID
	camera  camera.Camera
}

// Registry owns the ordered, enableable set of rendering layers and their
// bitmask identities. The draw order is a total order with no ties; reordering
// is an explicit SetOrder call, never implied by declaration order changing.
// Thread-safe for concurrent access.
type Registry interface {
	// Declare registers a new layer and assigns it the next free bitmask bit.
	// The new layer is appended to the end of the draw order.
	//
	// Parameters:
	//   - name: human-readable layer identity (e.g. "opaque", "ui")
	//   - options: functional options for enabled state, target, and camera
	//
	// Returns:
	//   - ID: the declared layer's identifier
	//   - error: ErrCapacityExceeded when all MaskBits bits are taken
	Declare(name string, options ...DeclareOption) (ID, error)

	// SetOrder atomically replaces the draw order. The sequence must be a
	// permutation of every declared layer; on any validation failure the
	// previous order is left untouched.
	//
	// Parameters:
	//   - ids: the new draw order, first layer drawn first
	//
	// Returns:
	//   - error: ErrDuplicateLayer, ErrUnknownLayer, or ErrIncompleteOrder
	SetOrder(ids []ID) error

	// Order returns a snapshot of the current draw order. The returned slice
	// is a copy; a frame that captures it at frame start can never observe a
	// mid-frame reorder.
	//
	// Returns:
	//   - []ID: the draw order, first layer drawn first
	Order() []ID

	// Name returns the human identity given at declaration.
	//
	// Parameters:
	//   - id: the layer to look up
	//
	// Returns:
	//   - string: the layer name, or "" for unknown IDs
	Name(id ID) string

	// IsEnabled reports whether the layer participates in rendering.
	//
	// Parameters:
	//   - id: the layer to look up
	//
	// Returns:
	//   - bool: true if enabled; false for unknown IDs
	IsEnabled(id ID) bool

	// SetEnabled toggles a layer's participation in rendering without
	// altering the draw order.
	//
	// Parameters:
	//   - id: the layer to toggle
	//   - enabled: the new enabled state
	//
	// Returns:
	//   - error: ErrUnknownLayer if the ID was never declared
	SetEnabled(id ID, enabled bool) error

	// MaskOf returns the layer's bitmask bit, assigned at declaration time
	// and stable for the process lifetime.
	//
	// Parameters:
	//   - id: the layer to look up
	//
	// Returns:
	//   - Mask: the single-bit mask, or 0 for unknown IDs
	MaskOf(id ID) Mask

	// Target returns the layer's dedicated render target, or
	// common.DefaultTarget when the layer composites into the swapchain.
	//
	// Parameters:
	//   - id: the layer to look up
	//
	// Returns:
	//   - common.TargetID: the layer's render target
	Target(id ID) common.TargetID

	// Camera returns the layer's camera override, or nil when the layer uses
	// the frame camera. UI layers typically override with an orthographic
	// identity camera.
	//
	// Parameters:
	//   - id: the layer to look up
	//
	// Returns:
	//   - camera.Camera: the override camera or nil
	Camera(id ID) camera.Camera

	// Count returns the number of declared layers.
	//
	// Returns:
	//   - int: the declared layer count
	Count() int
}

// Ensure registryImpl implements Registry interface.
var _ Registry = &registryImpl{}

// NewRegistry creates an empty layer registry.
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry() Registry {
	return &registryImpl{
		mu: &sync.RWMutex{},
	}
}

func (r *registryImpl) Declare(name string, options ...DeclareOption) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.layers) >= MaskBits {
		return 0, fmt.Errorf("declaring %q: %w", name, ErrCapacityExceeded)
	}

	rec := record{
		name:    name,
		enabled: true,
		target:  common.DefaultTarget,
	}
	for _, option := range options {
		option(&rec)
	}

	id := ID(len(r.layers))
	r.layers = append(r.layers, rec)
	r.order = append(r.order, id)
	return id, nil
}

func (r *registryImpl) SetOrder(ids []ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(ids) < len(r.layers) {
		return ErrIncompleteOrder
	}
	seen := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		if int(id) >= len(r.layers) {
			return fmt.Errorf("id %d: %w", id, ErrUnknownLayer)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("id %d (%s): %w", id, r.layers[id].name, ErrDuplicateLayer)
		}
		seen[id] = struct{}{}
	}

	r.order = append(r.order[:0], ids...)
	return nil
}

func (r *registryImpl) Order() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *registryImpl) Name(id ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.layers) {
		return ""
	}
	return r.layers[id].name
}

func (r *registryImpl) IsEnabled(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.layers) {
		return false
	}
	return r.layers[id].enabled
}

func (r *registryImpl) SetEnabled(id ID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.layers) {
		return fmt.Errorf("id %d: %w", id, ErrUnknownLayer)
	}
	r.layers[id].enabled = enabled
	return nil
}

func (r *registryImpl) MaskOf(id ID) Mask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.layers) {
		return 0
	}
	return Mask(1) << id
}

func (r *registryImpl) Target(id ID) common.TargetID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.layers) {
		return common.DefaultTarget
	}
	return r.layers[id].target
}

func (r *registryImpl) Camera(id ID) camera.Camera {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.layers) {
		return nil
	}
	return r.layers[id].camera
}

func (r *registryImpl) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}
