package cull

// CullerBuilderOption is a function that configures a Culler instance during construction.
type CullerBuilderOption func(*cullerImpl)

// WithWorkers is an option builder that sets the number of pooled workers used
// for chunked culling. A value of 1 forces the serial path; values below 1 are
// ignored.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - CullerBuilderOption: a function that applies the worker option to a cullerImpl
func WithWorkers(workers int) CullerBuilderOption {
	return func(c *cullerImpl) {
		if workers >= 1 {
			c.workers = workers
		}
	}
}

// WithChunkSize is an option builder that sets how many candidates each pooled
// worker task tests. Values below 1 are ignored.
//
// Parameters:
//   - chunkSize: candidates per task
//
// Returns:
//   - CullerBuilderOption: a function that applies the chunk size option to a cullerImpl
func WithChunkSize(chunkSize int) CullerBuilderOption {
	return func(c *cullerImpl) {
		if chunkSize >= 1 {
			c.chunkSize = chunkSize
		}
	}
}
