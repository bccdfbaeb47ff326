package layer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/camera"
)

func TestDeclareAssignsStableBits(t *testing.T) {
	r := NewRegistry()

	opaque, err := r.Declare("opaque")
	require.NoError(t, err)
	ui, err := r.Declare("ui")
	require.NoError(t, err)

	assert.Equal(t, Mask(1), r.MaskOf(opaque))
	assert.Equal(t, Mask(2), r.MaskOf(ui))
	assert.Equal(t, "opaque", r.Name(opaque))
	assert.Equal(t, "ui", r.Name(ui))

	// Bits never move, regardless of later reordering.
	require.NoError(t, r.SetOrder([]ID{ui, opaque}))
	assert.Equal(t, Mask(1), r.MaskOf(opaque))
	assert.Equal(t, Mask(2), r.MaskOf(ui))
}

func TestDeclareCapacity(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < MaskBits; i++ {
		_, err := r.Declare(fmt.Sprintf("layer-%d", i))
		require.NoError(t, err)
	}

	_, err := r.Declare("one-too-many")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, MaskBits, r.Count())
}

func TestSetOrderValidation(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Declare("a")
	b, _ := r.Declare("b")

	assert.ErrorIs(t, r.SetOrder([]ID{a, a}), ErrDuplicateLayer)
	assert.ErrorIs(t, r.SetOrder([]ID{a, 99}), ErrUnknownLayer)
	assert.ErrorIs(t, r.SetOrder([]ID{a}), ErrIncompleteOrder)

	// A failed SetOrder leaves the previous order untouched.
	assert.Equal(t, []ID{a, b}, r.Order())

	require.NoError(t, r.SetOrder([]ID{b, a}))
	assert.Equal(t, []ID{b, a}, r.Order())
}

func TestOrderSnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Declare("a")
	b, _ := r.Declare("b")

	order := r.Order()
	require.NoError(t, r.SetOrder([]ID{b, a}))

	// The copy captured before the reorder is unaffected.
	assert.Equal(t, []ID{a, b}, order)
}

func TestSetEnabled(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Declare("a")
	disabled, _ := r.Declare("debug", WithEnabled(false))

	assert.True(t, r.IsEnabled(a))
	assert.False(t, r.IsEnabled(disabled))

	require.NoError(t, r.SetEnabled(a, false))
	assert.False(t, r.IsEnabled(a))

	// Toggling never touches the order.
	assert.Equal(t, []ID{a, disabled}, r.Order())

	assert.ErrorIs(t, r.SetEnabled(99, true), ErrUnknownLayer)
}

func TestDeclareOptions(t *testing.T) {
	r := NewRegistry()
	cam := camera.NewCamera(camera.WithOrthographic(0, 1280, 720, 0, -1, 1))
	ui, err := r.Declare("ui", WithTarget(common.TargetID(7)), WithCamera(cam))
	require.NoError(t, err)

	assert.Equal(t, common.TargetID(7), r.Target(ui))
	assert.Same(t, cam, r.Camera(ui))

	plain, _ := r.Declare("world")
	assert.Equal(t, common.DefaultTarget, r.Target(plain))
	assert.Nil(t, r.Camera(plain))
}

func TestMaskOperations(t *testing.T) {
	a := Mask(0b0011)
	b := Mask(0b0110)

	assert.Equal(t, Mask(0b0111), a.Union(b))
	assert.Equal(t, Mask(0b0010), a.Intersect(b))
	assert.True(t, a.Contains(Mask(0b0001)))
	assert.False(t, a.Contains(b))
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(Mask(0b1000)))
}
