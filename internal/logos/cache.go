package logos

import (
	"sync"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// Subset cache names
const (
	// SubsetChannelAssignable holds logos offered in channel pickers
	SubsetChannelAssignable = "channel_assignable"

	// SubsetUsed holds logos referenced by at least one channel or VOD entry
	SubsetUsed = "used"
)

// Cache is the single authoritative in-memory mapping from logo ID to
// record, plus named subset caches for server-filtered views.
//
// There is exactly one representation per ID: subset caches reference the
// same *domain.Logo as the main mapping, so an in-place edit is observed
// by every view without a re-fetch. Bulk merges are append/merge-only; a
// batch never removes IDs absent from it.
type Cache struct {
	mu       sync.RWMutex
	gen      uint64
	entries  map[int64]*domain.Logo
	subsets  map[string]map[int64]*domain.Logo
	watchers []func()
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[int64]*domain.Logo),
		subsets: make(map[string]map[int64]*domain.Logo),
	}
}

// Get returns the cached logo for id, if present. Synchronous, never blocks
// on the network.
func (c *Cache) Get(id int64) (*domain.Logo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logo, ok := c.entries[id]
	return logo, ok
}

// Count returns the number of cached logos
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// All returns the cached logos in unspecified order
func (c *Cache) All() []*domain.Logo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logos := make([]*domain.Logo, 0, len(c.entries))
	for _, logo := range c.entries {
		logos = append(logos, logo)
	}
	return logos
}

// UpsertOne merges a single record and returns the canonical pointer
func (c *Cache) UpsertOne(logo domain.Logo) *domain.Logo {
	c.mu.Lock()
	canonical := c.upsertLocked(logo)
	c.mu.Unlock()

	c.notify()
	return canonical
}

// UpsertMany merges a fetched batch into the cache. IDs already present are
// updated in place; IDs absent from the batch are left untouched. O(batch).
func (c *Cache) UpsertMany(logos []domain.Logo) {
	if len(logos) == 0 {
		return
	}

	c.mu.Lock()
	for _, logo := range logos {
		c.upsertLocked(logo)
	}
	c.mu.Unlock()

	c.notify()
}

// Generation identifies the current cache lifetime. Reset starts a new
// generation; merges stamped with an older one are discarded.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// UpsertManyAt merges a batch stamped with the generation it was fetched
// under. A batch fetched before a Reset is dropped, so a completion that
// straddles session teardown cannot resurrect torn-down state. Reports
// whether the merge was applied.
func (c *Cache) UpsertManyAt(gen uint64, logos []domain.Logo) bool {
	if len(logos) == 0 {
		return true
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	for _, logo := range logos {
		c.upsertLocked(logo)
	}
	c.mu.Unlock()

	c.notify()
	return true
}

// upsertLocked merges one record, preserving pointer identity for existing
// IDs. Caller holds c.mu.
func (c *Cache) upsertLocked(logo domain.Logo) *domain.Logo {
	if existing, ok := c.entries[logo.ID]; ok {
		*existing = logo
		return existing
	}
	canonical := new(domain.Logo)
	*canonical = logo
	c.entries[logo.ID] = canonical
	return canonical
}

// Remove deletes a logo from the main cache and every subset
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	for _, subset := range c.subsets {
		delete(subset, id)
	}
	c.mu.Unlock()

	c.notify()
}

// SubsetUpsertMany merges a fetched batch into the named subset cache.
// Records are first merged into the main cache so both views share one
// representation per ID.
func (c *Cache) SubsetUpsertMany(name string, logos []domain.Logo) {
	if len(logos) == 0 {
		return
	}

	c.mu.Lock()
	c.subsetUpsertLocked(name, logos)
	c.mu.Unlock()

	c.notify()
}

// SubsetUpsertManyAt is SubsetUpsertMany with the generation check of
// UpsertManyAt. Reports whether the merge was applied.
func (c *Cache) SubsetUpsertManyAt(gen uint64, name string, logos []domain.Logo) bool {
	if len(logos) == 0 {
		return true
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.subsetUpsertLocked(name, logos)
	c.mu.Unlock()

	c.notify()
	return true
}

// subsetUpsertLocked merges a batch into the named subset. Caller holds c.mu.
func (c *Cache) subsetUpsertLocked(name string, logos []domain.Logo) {
	subset, ok := c.subsets[name]
	if !ok {
		subset = make(map[int64]*domain.Logo)
		c.subsets[name] = subset
	}
	for _, logo := range logos {
		subset[logo.ID] = c.upsertLocked(logo)
	}
}

// SubsetGet returns the logo for id from the named subset. Absence from a
// subset carries no meaning about the full catalog.
func (c *Cache) SubsetGet(name string, id int64) (*domain.Logo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logo, ok := c.subsets[name][id]
	return logo, ok
}

// SubsetAll returns the logos in the named subset in unspecified order
func (c *Cache) SubsetAll(name string) []*domain.Logo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subset := c.subsets[name]
	logos := make([]*domain.Logo, 0, len(subset))
	for _, logo := range subset {
		logos = append(logos, logo)
	}
	return logos
}

// SubsetCount returns the size of the named subset
func (c *Cache) SubsetCount(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subsets[name])
}

// Reset empties the main cache and all subsets and starts a new generation
// (session teardown)
func (c *Cache) Reset() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[int64]*domain.Logo)
	c.subsets = make(map[string]map[int64]*domain.Logo)
	c.mu.Unlock()

	c.notify()
}

// OnChange registers fn to run after every cache mutation. Callbacks run
// synchronously on the mutating goroutine and must not mutate the cache.
func (c *Cache) OnChange(fn func()) {
	c.mu.Lock()
	c.watchers = append(c.watchers, fn)
	c.mu.Unlock()
}

// notify invokes registered watchers outside the lock
func (c *Cache) notify() {
	c.mu.RLock()
	watchers := make([]func(), len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.RUnlock()

	for _, fn := range watchers {
		fn()
	}
}
