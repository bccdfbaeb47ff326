package renderable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
)

func TestRegisterAssignsUniqueHandles(t *testing.T) {
	r := NewRegistry()

	a := r.Register(NewDescriptor(1, 1))
	b := r.Register(NewDescriptor(2, 1))
	require.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())

	// Handles are never reused, even after the slot is freed.
	r.Unregister(a)
	c := r.Register(NewDescriptor(3, 1))
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	h := r.Register(NewDescriptor(1, 1))

	r.Unregister(h)
	gen := r.Generation()

	// Second removal is a silent no-op and does not bump the generation.
	r.Unregister(h)
	assert.Equal(t, gen, r.Generation())
	assert.Equal(t, 0, r.Len())
}

func TestMutationsOnStaleHandleAreNoOps(t *testing.T) {
	r := NewRegistry()
	h := r.Register(NewDescriptor(1, 1))
	r.Unregister(h)
	gen := r.Generation()

	r.SetVisible(h, false)
	r.SetLayerMask(h, layer.Mask(1))
	var m [16]float32
	common.Identity(m[:])
	r.SetTransform(h, m)

	assert.Equal(t, gen, r.Generation())
}

func TestSnapshotFiltersInvisible(t *testing.T) {
	r := NewRegistry()
	a := r.Register(NewDescriptor(1, 1))
	b := r.Register(NewDescriptor(2, 1))

	r.SetVisible(a, false)

	items := r.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, b, items[0].Handle)
}

func TestSnapshotOrderedAndCached(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 10; i++ {
		r.Register(NewDescriptor(common.MeshID(i), 1))
	}

	items := r.Snapshot()
	require.Len(t, items, 10)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Handle, items[i].Handle)
	}

	// Same generation, same backing slice.
	again := r.Snapshot()
	assert.Equal(t, &items[0], &again[0])
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	h := r.Register(NewDescriptor(1, 1, WithPosition(0, 0, 0)))

	before := r.Snapshot()
	require.Len(t, before, 1)

	var moved [16]float32
	common.Translation(moved[:], 100, 0, 0)
	r.SetTransform(h, moved)

	// The earlier snapshot still shows the old transform and bounds.
	assert.Equal(t, float32(0), before[0].WorldBounds.Center[0])

	after := r.Snapshot()
	require.Len(t, after, 1)
	assert.Equal(t, float32(100), after[0].WorldBounds.Center[0])
}

func TestSetTransformRecomputesBounds(t *testing.T) {
	r := NewRegistry()
	h := r.Register(NewDescriptor(1, 1, WithBounds([3]float32{}, 2)))

	var m [16]float32
	common.Translation(m[:], 5, -3, 1)
	r.SetTransform(h, m)

	items := r.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, [3]float32{5, -3, 1}, items[0].WorldBounds.Center)
	assert.Equal(t, float32(2), items[0].WorldBounds.Radius)
}

func TestQueryByLayer(t *testing.T) {
	r := NewRegistry()
	opaque := layer.Mask(0b01)
	ui := layer.Mask(0b10)

	a := r.Register(NewDescriptor(1, 1, WithLayers(opaque)))
	b := r.Register(NewDescriptor(2, 1, WithLayers(ui)))
	c := r.Register(NewDescriptor(3, 1, WithLayers(opaque.Union(ui))))

	var got []Handle
	for h := range r.QueryByLayer(opaque) {
		got = append(got, h)
	}
	assert.Equal(t, []Handle{a, c}, got)

	got = got[:0]
	for h := range r.QueryByLayer(ui) {
		got = append(got, h)
	}
	assert.Equal(t, []Handle{b, c}, got)
}

func TestQueryByLayerSnapshotSemantics(t *testing.T) {
	r := NewRegistry()
	mask := layer.Mask(1)
	a := r.Register(NewDescriptor(1, 1, WithLayers(mask)))

	seq := r.QueryByLayer(mask)

	// Registrations after the query call never appear in its results.
	r.Register(NewDescriptor(2, 1, WithLayers(mask)))

	var got []Handle
	for h := range seq {
		got = append(got, h)
	}
	assert.Equal(t, []Handle{a}, got)
}

func TestNewDescriptorDefaults(t *testing.T) {
	d := NewDescriptor(7, 9)

	assert.Equal(t, common.MeshID(7), d.Mesh)
	assert.Equal(t, common.MaterialID(9), d.Material)
	assert.True(t, d.Visible)
	assert.Equal(t, float32(1), d.Bounds.Radius)

	var identity [16]float32
	common.Identity(identity[:])
	assert.Equal(t, identity, d.Transform)
}
