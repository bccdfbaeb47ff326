package cull

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
)

// boxFrustum returns an axis-aligned frustum enclosing [-e, e] on every axis.
func boxFrustum(e float32) common.Frustum {
	return common.Frustum{
		Planes: [6]common.Plane{
			{Normal: [3]float32{1, 0, 0}, Distance: e},
			{Normal: [3]float32{-1, 0, 0}, Distance: e},
			{Normal: [3]float32{0, 1, 0}, Distance: e},
			{Normal: [3]float32{0, -1, 0}, Distance: e},
			{Normal: [3]float32{0, 0, 1}, Distance: e},
			{Normal: [3]float32{0, 0, -1}, Distance: e},
		},
	}
}

func itemAt(h renderable.Handle, x, y, z, radius float32) renderable.Item {
	return renderable.Item{
		Handle:      h,
		WorldBounds: common.Sphere{Center: [3]float32{x, y, z}, Radius: radius},
	}
}

func TestCullAcceptReject(t *testing.T) {
	c := NewCuller(WithWorkers(1))
	f := boxFrustum(10)

	candidates := []renderable.Item{
		itemAt(1, 0, 0, 0, 1),    // fully inside
		itemAt(2, 50, 0, 0, 1),   // fully outside
		itemAt(3, 10.5, 0, 0, 1), // straddles the +X plane
		itemAt(4, 0, -12, 0, 1),  // outside -Y
		itemAt(5, 9, 9, 9, 1),    // inside near a corner
	}

	visible := c.Cull(f, candidates)
	handles := make([]renderable.Handle, 0, len(visible))
	for _, v := range visible {
		handles = append(handles, v.Handle)
	}
	assert.Equal(t, []renderable.Handle{1, 3, 5}, handles)
}

func TestCullEmptyCandidates(t *testing.T) {
	c := NewCuller(WithWorkers(1))
	assert.Empty(t, c.Cull(boxFrustum(10), nil))
}

func TestCullPreservesCandidateOrder(t *testing.T) {
	c := NewCuller(WithWorkers(1))
	f := boxFrustum(100)

	candidates := make([]renderable.Item, 50)
	for i := range candidates {
		candidates[i] = itemAt(renderable.Handle(50-i), float32(i), 0, 0, 1)
	}

	visible := c.Cull(f, candidates)
	require.Len(t, visible, 50)
	for i := range visible {
		assert.Equal(t, candidates[i].Handle, visible[i].Handle)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	f := boxFrustum(500)

	// Enough candidates to cross the parallel threshold, spread so roughly
	// half survive.
	candidates := make([]renderable.Item, 2000)
	for i := range candidates {
		candidates[i] = itemAt(renderable.Handle(i+1), float32(i), 0, 0, 1)
	}

	serial := NewCuller(WithWorkers(1)).Cull(f, candidates)
	parallel := NewCuller(WithWorkers(4), WithChunkSize(128)).Cull(f, candidates)

	assert.Equal(t, serial, parallel)
}

func TestParallelSmallChunks(t *testing.T) {
	f := boxFrustum(10)

	candidates := make([]renderable.Item, 300)
	for i := range candidates {
		// Every third candidate lands inside the frustum.
		x := float32(100)
		if i%3 == 0 {
			x = 0
		}
		candidates[i] = itemAt(renderable.Handle(i+1), x, 0, 0, 1)
	}

	serial := NewCuller(WithWorkers(1)).Cull(f, candidates)
	parallel := NewCuller(WithWorkers(3), WithChunkSize(7)).Cull(f, candidates)

	require.Equal(t, 100, len(serial))
	assert.Equal(t, serial, parallel)
}
