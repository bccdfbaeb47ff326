package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
)

// OpKind identifies one recorded backend operation.
type OpKind int

const (
	// OpSetTarget records a SetRenderTarget call.
	OpSetTarget OpKind = iota

	// OpClear records a ClearTarget call.
	OpClear

	// OpBindShader records a BindShader call.
	OpBindShader

	// OpDraw records a SubmitDrawBatch call.
	OpDraw

	// OpPresent records a Present call.
	OpPresent
)

// Op is one recorded backend operation.
type Op struct {
	Kind      OpKind
	Target    common.TargetID
	Shader    common.ShaderID
	Key       batch.Key
	Instances int
}

// Recorder is a headless Backend that records every operation instead of
// touching a GPU. It backs tests and headless tooling, and can simulate
// binding-layer handle invalidation for degradation paths.
// Thread-safe for concurrent access.
type Recorder struct {
	mu    sync.Mutex
	ops   []Op
	stale map[common.TargetID]bool
}

// Ensure Recorder implements Backend interface.
var _ Backend = &Recorder{}

// NewRecorder creates an empty recording backend.
//
// Returns:
//   - *Recorder: the newly created recorder
func NewRecorder() *Recorder {
	return &Recorder{
		stale: make(map[common.TargetID]bool),
	}
}

// Ops returns a copy of every operation recorded since the last Reset.
//
// Returns:
//   - []Op: the recorded operations in submission order
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Reset discards all recorded operations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = r.ops[:0]
}

// InvalidateTarget simulates the binding layer invalidating a render target.
// Subsequent SetRenderTarget and ClearTarget calls for it fail with
// ErrStaleHandle until RestoreTarget.
//
// Parameters:
//   - target: the target to invalidate
func (r *Recorder) InvalidateTarget(target common.TargetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale[target] = true
}

// RestoreTarget clears a simulated invalidation.
//
// Parameters:
//   - target: the target to restore
func (r *Recorder) RestoreTarget(target common.TargetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stale, target)
}

func (r *Recorder) SetRenderTarget(target common.TargetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale[target] {
		return fmt.Errorf("target %d: %w", target, ErrStaleHandle)
	}
	r.ops = append(r.ops, Op{Kind: OpSetTarget, Target: target})
	return nil
}

func (r *Recorder) ClearTarget(target common.TargetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale[target] {
		return fmt.Errorf("target %d: %w", target, ErrStaleHandle)
	}
	r.ops = append(r.ops, Op{Kind: OpClear, Target: target})
	return nil
}

func (r *Recorder) BindShader(shader common.ShaderID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpBindShader, Shader: shader})
	return nil
}

func (r *Recorder) SubmitDrawBatch(key batch.Key, transforms [][16]float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpDraw, Key: key, Instances: len(transforms)})
	return nil
}

func (r *Recorder) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpPresent})
	return nil
}
