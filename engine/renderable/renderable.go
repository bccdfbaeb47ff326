package renderable

import (
	"iter"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
)

// Handle identifies a registered renderable. Handles are allocated
// monotonically and never reused, so a stale handle can never alias a newer
// registration.
type Handle uint64

// Descriptor holds the draw data supplied at registration. Use NewDescriptor
// to get defaulted fields (identity transform, visible, unit bounds).
type Descriptor struct {
	// Mesh is the base (finest) mesh for this renderable.
	Mesh common.MeshID

	// LODs are optional coarser mesh variants ordered near-to-far, matching
	// the engine's configured LOD distance thresholds. When empty the base
	// mesh is drawn at every distance.
	LODs []common.MeshID

	// Material references the material record resolved at draw time.
	Material common.MaterialID

	// Transform is the world transform, 4x4 column-major.
	Transform [16]float32

	// Bounds is the object-space bounding sphere used for culling.
	Bounds common.Sphere

	// Layers is the set of layers this renderable is drawn under.
	Layers layer.Mask

	// Visible gates the renderable without unregistering it.
	Visible bool
}

// Item is one renderable inside a registry snapshot. World bounds are already
// transformed, so culling never touches the live registry.
type Item struct {
	Handle      Handle
	Mesh        common.MeshID
	LODs        []common.MeshID
	Material    common.MaterialID
	Transform   [16]float32
	WorldBounds common.Sphere
	Layers      layer.Mask
}

// entry is the registry's mutable per-renderable state.
type entry struct {
	desc        Descriptor
	worldBounds common.Sphere
}

// registryImpl is the implementation of the Registry interface.
type registryImpl struct {
	mu      *sync.RWMutex
	entries map[Handle]*entry
	nextID  Handle

	// generation counts mutations; snapshots are cached per generation so an
	// untouched registry costs one slice reuse per frame, not a rebuild.
	generation uint64

	snapshot    []Item
	snapshotGen uint64
	snapshotOK  bool
}

// Registry owns per-object draw data for every registered renderable. It is
// mutated by scene-authoring code between frames and read by the frame
// orchestrator through consistent snapshots, so a frame in flight never
// observes a torn update.
// Thread-safe for concurrent access.
type Registry interface {
	// Register adds a renderable and returns its stable handle.
	//
	// Parameters:
	//   - desc: the renderable's draw data
	//
	// Returns:
	//   - Handle: the new renderable's handle
	Register(desc Descriptor) Handle

	// Unregister removes a renderable. Removing an already-removed handle is
	// a silent no-op, so duplicate teardown calls are always safe.
	//
	// Parameters:
	//   - h: the handle to remove
	Unregister(h Handle)

	// SetTransform replaces the world transform and recomputes the cached
	// world-space bounds in the same critical section, so culling can never
	// observe a transform without its matching bounds.
	//
	// Parameters:
	//   - h: the handle to update
	//   - transform: the new world transform (column-major)
	SetTransform(h Handle, transform [16]float32)

	// SetLayerMask replaces the renderable's layer membership.
	//
	// Parameters:
	//   - h: the handle to update
	//   - mask: the new layer mask
	SetLayerMask(h Handle, mask layer.Mask)

	// SetVisible toggles the renderable without unregistering it.
	//
	// Parameters:
	//   - h: the handle to update
	//   - visible: the new visibility state
	SetVisible(h Handle, visible bool)

	// QueryByLayer returns a restartable sequence of the handles whose layer
	// mask overlaps the given mask at call time. Mutations after the query
	// begins never appear in an in-progress iteration.
	//
	// Parameters:
	//   - mask: the layer mask to match against
	//
	// Returns:
	//   - iter.Seq[Handle]: the matching handles in ascending handle order
	QueryByLayer(mask layer.Mask) iter.Seq[Handle]

	// Snapshot returns a consistent copy of every visible renderable, ordered
	// by handle. The returned slice is shared between callers of the same
	// generation and must be treated as read-only.
	//
	// Returns:
	//   - []Item: the visible renderables in ascending handle order
	Snapshot() []Item

	// Generation returns the mutation counter. Two Snapshot calls at the same
	// generation return identical contents.
	//
	// Returns:
	//   - uint64: the current generation
	Generation() uint64

	// Len returns the number of registered renderables, visible or not.
	//
	// Returns:
	//   - int: the registered count
	Len() int
}

// Ensure registryImpl implements Registry interface.
var _ Registry = &registryImpl{}

// NewDescriptor creates a Descriptor with defaulted fields: identity
// transform, visible, and a unit bounding sphere at the origin.
//
// Parameters:
//   - mesh: the base mesh handle
//   - material: the material handle
//   - options: functional options for transform, bounds, layers, LODs
//
// Returns:
//   - Descriptor: the configured descriptor
func NewDescriptor(mesh common.MeshID, material common.MaterialID, options ...DescriptorOption) Descriptor {
	d := Descriptor{
		Mesh:     mesh,
		Material: material,
		Bounds:   common.Sphere{Radius: 1},
		Visible:  true,
	}
	common.Identity(d.Transform[:])
	for _, option := range options {
		option(&d)
	}
	return d
}

// NewRegistry creates an empty renderable registry.
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry() Registry {
	return &registryImpl{
		mu:      &sync.RWMutex{},
		entries: make(map[Handle]*entry),
		nextID:  1,
	}
}

func (r *registryImpl) Register(desc Descriptor) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.nextID
	r.nextID++
	r.entries[h] = &entry{
		desc:        desc,
		worldBounds: common.TransformSphere(desc.Transform[:], desc.Bounds),
	}
	r.generation++
	return h
}

func (r *registryImpl) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[h]; !ok {
		return
	}
	delete(r.entries, h)
	r.generation++
}

func (r *registryImpl) SetTransform(h Handle, transform [16]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return
	}
	e.desc.Transform = transform
	e.worldBounds = common.TransformSphere(transform[:], e.desc.Bounds)
	r.generation++
}

func (r *registryImpl) SetLayerMask(h Handle, mask layer.Mask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return
	}
	e.desc.Layers = mask
	r.generation++
}

func (r *registryImpl) SetVisible(h Handle, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return
	}
	e.desc.Visible = visible
	r.generation++
}

func (r *registryImpl) QueryByLayer(mask layer.Mask) iter.Seq[Handle] {
	r.mu.RLock()
	matched := make([]Handle, 0, len(r.entries))
	for h, e := range r.entries {
		if e.desc.Layers.Overlaps(mask) {
			matched = append(matched, h)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	return func(yield func(Handle) bool) {
		for _, h := range matched {
			if !yield(h) {
				return
			}
		}
	}
}

func (r *registryImpl) Snapshot() []Item {
	r.mu.RLock()
	if r.snapshotOK && r.snapshotGen == r.generation {
		s := r.snapshot
		r.mu.RUnlock()
		return s
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshotOK && r.snapshotGen == r.generation {
		return r.snapshot
	}

	items := make([]Item, 0, len(r.entries))
	for h, e := range r.entries {
		if !e.desc.Visible {
			continue
		}
		items = append(items, Item{
			Handle:      h,
			Mesh:        e.desc.Mesh,
			LODs:        e.desc.LODs,
			Material:    e.desc.Material,
			Transform:   e.desc.Transform,
			WorldBounds: e.worldBounds,
			Layers:      e.desc.Layers,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Handle < items[j].Handle })

	r.snapshot = items
	r.snapshotGen = r.generation
	r.snapshotOK = true
	return items
}

func (r *registryImpl) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

func (r *registryImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
