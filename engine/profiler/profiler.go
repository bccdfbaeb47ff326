package profiler

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// FrameReport summarizes one rendered frame: what each stage cost and what
// the frame produced. The orchestrator emits one per RenderFrame call.
type FrameReport struct {
	// Frame is the frame's sequence number.
	Frame uint64

	// LayersDrawn and LayersSkipped count per-layer dispatch outcomes.
	LayersDrawn   int
	LayersSkipped int

	// DrawCalls and Instances count what reached the binding layer.
	DrawCalls int
	Instances int

	// Candidates and Visible count culling input and output across layers.
	Candidates int
	Visible    int

	// SkippedRenderables counts renderables dropped by resolution failures.
	SkippedRenderables int

	// Per-stage wall time, summed across layers.
	CullTime     time.Duration
	LightTime    time.Duration
	BatchTime    time.Duration
	DispatchTime time.Duration

	// Total is the whole RenderFrame duration.
	Total time.Duration
}

// Profiler aggregates FrameReports and periodically logs frame rate, stage
// timing, and memory statistics. Output goes through the provided logger at
// Info level.
// Thread-safe for concurrent access.
type Profiler struct {
	mu             sync.Mutex
	logger         func() *slog.Logger
	updateInterval time.Duration

	lastFlush      time.Time
	frames         int
	sum            FrameReport
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options for logger and interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default,
		updateInterval: time.Second,
		lastFlush:      time.Now(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Observe records one frame's report and logs aggregate statistics when the
// update interval has elapsed. Call once per frame from the render goroutine.
//
// Parameters:
//   - r: the frame's report
//
// Returns:
//   - bool: true if stats were logged this call
func (p *Profiler) Observe(r FrameReport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frames++
	p.sum.LayersDrawn += r.LayersDrawn
	p.sum.LayersSkipped += r.LayersSkipped
	p.sum.DrawCalls += r.DrawCalls
	p.sum.Instances += r.Instances
	p.sum.Candidates += r.Candidates
	p.sum.Visible += r.Visible
	p.sum.SkippedRenderables += r.SkippedRenderables
	p.sum.CullTime += r.CullTime
	p.sum.LightTime += r.LightTime
	p.sum.BatchTime += r.BatchTime
	p.sum.DispatchTime += r.DispatchTime
	p.sum.Total += r.Total

	elapsed := time.Since(p.lastFlush)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frames) / elapsed.Seconds()
	n := time.Duration(p.frames)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()
	p.lastTotalAlloc = p.memStats.TotalAlloc

	p.logger().Info("frame stats",
		"fps", fps,
		"avg_frame", p.sum.Total/n,
		"avg_cull", p.sum.CullTime/n,
		"avg_light", p.sum.LightTime/n,
		"avg_batch", p.sum.BatchTime/n,
		"avg_dispatch", p.sum.DispatchTime/n,
		"draw_calls", p.sum.DrawCalls/p.frames,
		"instances", p.sum.Instances/p.frames,
		"culled", (p.sum.Candidates-p.sum.Visible)/p.frames,
		"layers_skipped", p.sum.LayersSkipped,
		"renderables_skipped", p.sum.SkippedRenderables,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", p.memStats.NumGC,
	)

	p.frames = 0
	p.sum = FrameReport{}
	p.lastFlush = time.Now()
	return true
}
