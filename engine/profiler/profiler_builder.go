package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a function that configures a Profiler instance during construction.
type ProfilerBuilderOption func(*Profiler)

// WithLoggerProvider is an option builder that sets where summaries are
// logged. A provider function (rather than a logger value) lets the host swap
// its logger at runtime without reconstructing the profiler.
//
// Parameters:
//   - provider: returns the logger to use at flush time
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a Profiler
func WithLoggerProvider(provider func() *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if provider != nil {
			p.logger = provider
		}
	}
}

// WithUpdateInterval is an option builder that sets how often aggregate stats
// are logged. Values <= 0 are ignored.
//
// Parameters:
//   - interval: the flush interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a Profiler
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}
