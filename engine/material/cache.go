package material

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/prism-go/common"
)

// DefaultCapacity is the cache capacity used when none is configured.
const DefaultCapacity = 1024

// cacheImpl is the implementation of the Cache interface.
type cacheImpl struct {
	mu       *sync.Mutex
	capacity int
	entries  map[common.MaterialID]*list.Element
	lru      *list.List // front = most recently used

	// Statistics (atomic so they can be read without the cache lock).
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// cacheEntry is one resident material record.
type cacheEntry struct {
	id    common.MaterialID
	props Properties
}

// Cache is the material store keyed by content identity. Entries live until
// explicitly evicted, displaced by LRU pressure at capacity, or shutdown.
// Thread-safe for concurrent access.
type Cache interface {
	// Store inserts or replaces a material record and marks it most recently
	// used, evicting the least recently used record if over capacity.
	//
	// Parameters:
	//   - id: the material's content identity
	//   - props: the material record
	Store(id common.MaterialID, props Properties)

	// Resolve looks up a material record and marks it most recently used.
	//
	// Parameters:
	//   - id: the material's content identity
	//
	// Returns:
	//   - Properties: the material record (zero value on a miss)
	//   - bool: true on a hit
	Resolve(id common.MaterialID) (Properties, bool)

	// GetOrCreate resolves a material, invoking create and storing its result
	// on a miss. create runs outside the cache lock.
	//
	// Parameters:
	//   - id: the material's content identity
	//   - create: factory invoked on a miss
	//
	// Returns:
	//   - Properties: the resident or newly created record
	GetOrCreate(id common.MaterialID, create func() Properties) Properties

	// Evict removes a material record.
	//
	// Parameters:
	//   - id: the material's content identity
	//
	// Returns:
	//   - bool: true if a record was removed
	Evict(id common.MaterialID) bool

	// Len returns the number of resident records.
	//
	// Returns:
	//   - int: the resident count
	Len() int

	// Capacity returns the configured maximum resident count.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// Stats returns the cumulative hit, miss, and eviction counters.
	//
	// Returns:
	//   - hits, misses, evictions: the cumulative counters
	Stats() (hits, misses, evictions uint64)
}

// Ensure cacheImpl implements Cache interface.
var _ Cache = &cacheImpl{}

// NewCache creates an empty material cache.
//
// Parameters:
//   - options: functional options for capacity
//
// Returns:
//   - Cache: the newly created cache
func NewCache(options ...CacheBuilderOption) Cache {
	c := &cacheImpl{
		mu:       &sync.Mutex{},
		capacity: DefaultCapacity,
		entries:  make(map[common.MaterialID]*list.Element),
		lru:      list.New(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cacheImpl) Store(id common.MaterialID, props Properties) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(id, props)
}

// store inserts or replaces a record. Callers must hold c.mu.
func (c *cacheImpl) store(id common.MaterialID, props Properties) {
	if el, ok := c.entries[id]; ok {
		el.Value.(*cacheEntry).props = props
		c.lru.MoveToFront(el)
		return
	}
	c.entries[id] = c.lru.PushFront(&cacheEntry{id: id, props: props})
	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
		c.evictions.Add(1)
	}
}

func (c *cacheImpl) Resolve(id common.MaterialID) (Properties, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		c.misses.Add(1)
		return Properties{}, false
	}
	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*cacheEntry).props, true
}

func (c *cacheImpl) GetOrCreate(id common.MaterialID, create func() Properties) Properties {
	if props, ok := c.Resolve(id); ok {
		return props
	}

	// create may be expensive (texture decode, uniform assembly); run it
	// outside the lock. A concurrent creator for the same id may race us,
	// in which case last store wins and both callers get a valid record.
	props := create()

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		c.lru.MoveToFront(el)
		return el.Value.(*cacheEntry).props
	}
	c.store(id, props)
	return props
}

func (c *cacheImpl) Evict(id common.MaterialID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return false
	}
	c.lru.Remove(el)
	delete(c.entries, id)
	return true
}

func (c *cacheImpl) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *cacheImpl) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

func (c *cacheImpl) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}
