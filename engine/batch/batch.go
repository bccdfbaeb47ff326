package batch

import (
	"sort"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
)

// Key is the grouping tuple for a single instanced draw submission. Two
// renderables with equal keys are interchangeable for batching regardless of
// world transform; transforms are submitted per-instance.
type Key struct {
	Shader   common.ShaderID
	Material common.MaterialID
	Mesh     common.MeshID
}

// Less defines the deterministic group ordering: shader first, then material,
// then mesh. Sorting by shader first keeps the same shader bound across
// consecutive groups, which is the state-change coherence the batcher exists
// to maximize.
//
// Parameters:
//   - o: the key to compare against
//
// Returns:
//   - bool: true if this key orders before o
func (k Key) Less(o Key) bool {
	if k.Shader != o.Shader {
		return k.Shader < o.Shader
	}
	if k.Material != o.Material {
		return k.Material < o.Material
	}
	return k.Mesh < o.Mesh
}

// Group is one instanced draw submission: a key and the world transforms of
// every instance drawn under it.
type Group struct {
	Key        Key
	Transforms [][16]float32
}

// DrawList is the ordered sequence of groups for one layer of one frame.
// Transient: rebuilt every frame, never persisted.
type DrawList struct {
	Groups []Group

	// Skipped counts renderables dropped from this list because their shader
	// could not be resolved. Reported, never fatal.
	Skipped int
}

// InstanceCount returns the total number of instances across all groups.
//
// Returns:
//   - int: the instance total
func (d DrawList) InstanceCount() int {
	n := 0
	for i := range d.Groups {
		n += len(d.Groups[i].Transforms)
	}
	return n
}

// ShaderResolver maps a material to the shader it draws with under the current
// layer. Returning an error skips the renderable for this frame only.
type ShaderResolver func(common.MaterialID) (common.ShaderID, error)

// builderImpl is the implementation of the Builder interface.
type builderImpl struct {
	thresholds    []float32
	instancingCap int
}

// Builder turns a layer's visible set into a deterministic DrawList: level of
// detail selected per renderable by camera distance, instances grouped by
// (shader, material, mesh) key, groups sorted by key, and groups over the
// instancing cap split into adjacent submissions rather than failing.
type Builder interface {
	// BuildDrawList groups the visible renderables for one layer.
	//
	// Parameters:
	//   - visible: the culled visible set (any order; output order is by key)
	//   - cameraPos: world-space camera position used for LOD distance
	//   - resolve: maps each material to its layer shader
	//
	// Returns:
	//   - DrawList: the ordered draw list for the layer
	BuildDrawList(visible []renderable.Item, cameraPos [3]float32, resolve ShaderResolver) DrawList
}

// Ensure builderImpl implements Builder interface.
var _ Builder = &builderImpl{}

// NewBuilder creates a Builder. Without options there are no LOD thresholds
// (every renderable draws its base mesh) and no instancing cap.
//
// Parameters:
//   - options: functional options for thresholds and instancing cap
//
// Returns:
//   - Builder: the newly created builder
func NewBuilder(options ...BuilderOption) Builder {
	b := &builderImpl{}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *builderImpl) BuildDrawList(visible []renderable.Item, cameraPos [3]float32, resolve ShaderResolver) DrawList {
	var list DrawList
	groups := make(map[Key]int, len(visible))

	for i := range visible {
		item := &visible[i]
		shader, err := resolve(item.Material)
		if err != nil {
			list.Skipped++
			continue
		}

		key := Key{
			Shader:   shader,
			Material: item.Material,
			Mesh:     b.selectLOD(item, cameraPos),
		}
		gi, ok := groups[key]
		if !ok {
			gi = len(list.Groups)
			groups[key] = gi
			list.Groups = append(list.Groups, Group{Key: key})
		}
		list.Groups[gi].Transforms = append(list.Groups[gi].Transforms, item.Transform)
	}

	sort.Slice(list.Groups, func(i, j int) bool {
		return list.Groups[i].Key.Less(list.Groups[j].Key)
	})

	if b.instancingCap > 0 {
		list.Groups = splitByCap(list.Groups, b.instancingCap)
	}
	return list
}

// selectLOD picks the mesh variant for a renderable at its current camera
// distance. The nearest threshold met wins; beyond every threshold the
// coarsest variant is used. Selection never fails: renderables without
// variants fall back to their base mesh.
func (b *builderImpl) selectLOD(item *renderable.Item, cameraPos [3]float32) common.MeshID {
	if len(item.LODs) == 0 || len(b.thresholds) == 0 {
		return item.Mesh
	}

	dist := common.Distance(cameraPos, item.WorldBounds.Center)
	idx := len(b.thresholds) - 1
	for i, t := range b.thresholds {
		if dist <= t {
			idx = i
			break
		}
	}
	if idx >= len(item.LODs) {
		idx = len(item.LODs) - 1
	}
	return item.LODs[idx]
}

// splitByCap replaces any group larger than the hardware instancing cap with
// adjacent same-key groups of at most cap instances.
func splitByCap(groups []Group, cap int) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		for len(g.Transforms) > cap {
			out = append(out, Group{Key: g.Key, Transforms: g.Transforms[:cap]})
			g.Transforms = g.Transforms[cap:]
		}
		out = append(out, g)
	}
	return out
}
