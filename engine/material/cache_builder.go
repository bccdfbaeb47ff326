package material

// CacheBuilderOption is a function that configures a Cache instance during construction.
type CacheBuilderOption func(*cacheImpl)

// WithCapacity is an option builder that sets the maximum number of resident
// material records before LRU eviction. Values below 1 are ignored.
//
// Parameters:
//   - capacity: the maximum resident count
//
// Returns:
//   - CacheBuilderOption: a function that applies the capacity option to a cacheImpl
func WithCapacity(capacity int) CacheBuilderOption {
	return func(c *cacheImpl) {
		if capacity >= 1 {
			c.capacity = capacity
		}
	}
}
