package cull

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
)

// parallelThreshold is the candidate count below which the parallel path costs
// more than it saves and culling runs serially on the calling goroutine.
const parallelThreshold = 256

// cullerImpl is the implementation of the Culler interface.
type cullerImpl struct {
	workers   int
	chunkSize int

	// pool manages a bounded set of reusable goroutines for chunked culling.
	// Workers persist across frames, avoiding per-frame goroutine spawn overhead.
	pool worker.DynamicWorkerPool

	mu     sync.Mutex
	nextID int
}

// Culler produces the visible subset of a candidate set for one camera
// frustum. Culling is deterministic: the visible set preserves candidate
// order, and the parallel path produces exactly the same set as the serial
// path. Each layer culls independently because layers may use different
// cameras.
type Culler interface {
	// Cull tests every candidate's world-space bounding sphere against the
	// six frustum planes and returns the survivors in candidate order.
	//
	// Parameters:
	//   - frustum: the camera frustum, planes normalized, positive half-space inside
	//   - candidates: the layer's candidate renderables (registry snapshot order)
	//
	// Returns:
	//   - []renderable.Item: the visible subset, in candidate order
	Cull(frustum common.Frustum, candidates []renderable.Item) []renderable.Item
}

// Ensure cullerImpl implements Culler interface.
var _ Culler = &cullerImpl{}

// NewCuller creates a Culler. By default it fans chunks of the candidate set
// out across NumCPU-1 pooled workers; WithWorkers(1) forces the serial path.
//
// Parameters:
//   - options: functional options for worker and chunk counts
//
// Returns:
//   - Culler: the newly created culler
func NewCuller(options ...CullerBuilderOption) Culler {
	c := &cullerImpl{
		workers:   max(runtime.NumCPU()-1, 1),
		chunkSize: 512,
	}
	for _, option := range options {
		option(c)
	}
	if c.workers > 1 {
		// Queue size covers a full frame's chunks for large scenes with headroom.
		c.pool = worker.NewDynamicWorkerPool(c.workers, 256, 1*time.Second)
	}
	return c
}

func (c *cullerImpl) Cull(frustum common.Frustum, candidates []renderable.Item) []renderable.Item {
	if c.workers <= 1 || len(candidates) < parallelThreshold {
		return cullSerial(frustum, candidates, nil)
	}
	return c.cullParallel(frustum, candidates)
}

// cullSerial appends the visible candidates to dst and returns it.
func cullSerial(frustum common.Frustum, candidates []renderable.Item, dst []renderable.Item) []renderable.Item {
	for i := range candidates {
		if frustum.IntersectsSphere(candidates[i].WorldBounds) {
			dst = append(dst, candidates[i])
		}
	}
	return dst
}

// cullParallel splits the candidate slice into fixed-size chunks, fans them
// out over the worker pool, and concatenates per-chunk results in chunk order.
// Concatenation in chunk order is what makes the parallel visible set equal
// the serial one.
func (c *cullerImpl) cullParallel(frustum common.Frustum, candidates []renderable.Item) []renderable.Item {
	chunks := (len(candidates) + c.chunkSize - 1) / c.chunkSize
	results := make([][]renderable.Item, chunks)

	// A WaitGroup provides the per-frame barrier; pool.Wait-style idle
	// detection is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		lo := i * c.chunkSize
		hi := min(lo+c.chunkSize, len(candidates))
		idx := i

		wg.Add(1)
		c.pool.SubmitTask(worker.Task{
			ID: c.taskID(),
			Do: func() (any, error) {
				defer wg.Done()
				results[idx] = cullSerial(frustum, candidates[lo:hi], nil)
				return nil, nil
			},
		})
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	visible := make([]renderable.Item, 0, total)
	for _, r := range results {
		visible = append(visible, r...)
	}
	return visible
}

// taskID hands out unique task identifiers for pool submissions.
func (c *cullerImpl) taskID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	return id
}
