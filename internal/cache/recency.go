package cache

import "sync"

// EvictFunc is invoked with entries displaced from a Recency set, giving the
// owner a chance to release the resources the value holds.
type EvictFunc func(key string, value any)

// Recency keeps the most recently used N entries, evicting the oldest when
// capacity is exceeded. It caps the number of lazily materialized playable
// handles kept alive during a session.
type Recency struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string]any
	onEvict EvictFunc
}

// NewRecency constructs a bounded recency set. A non-positive limit defaults
// to a single entry.
func NewRecency(limit int, onEvict EvictFunc) *Recency {
	if limit <= 0 {
		limit = 1
	}
	return &Recency{
		limit:   limit,
		entries: make(map[string]any, limit),
		onEvict: onEvict,
	}
}

// Put stores the value under key, displacing the least recently used entry
// when the set is full. Replacing an existing key evicts the prior value.
func (r *Recency) Put(key string, value any) {
	var evicted []struct {
		key   string
		value any
	}
	r.mu.Lock()
	if prior, ok := r.entries[key]; ok {
		if prior != value {
			evicted = append(evicted, struct {
				key   string
				value any
			}{key, prior})
		}
		r.touchLocked(key)
		r.entries[key] = value
	} else {
		r.order = append(r.order, key)
		r.entries[key] = value
		for len(r.order) > r.limit {
			oldest := r.order[0]
			r.order = r.order[1:]
			evicted = append(evicted, struct {
				key   string
				value any
			}{oldest, r.entries[oldest]})
			delete(r.entries, oldest)
		}
	}
	r.mu.Unlock()

	if r.onEvict != nil {
		for _, entry := range evicted {
			r.onEvict(entry.key, entry.value)
		}
	}
}

// Get returns the value for key and marks it most recently used.
func (r *Recency) Get(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.entries[key]
	if ok {
		r.touchLocked(key)
	}
	return value, ok
}

// Remove drops the entry without invoking the eviction callback; the caller
// owns the value's cleanup.
func (r *Recency) Remove(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return value, true
}

// Purge evicts every entry through the eviction callback.
func (r *Recency) Purge() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]any, r.limit)
	r.order = nil
	r.mu.Unlock()

	if r.onEvict != nil {
		for key, value := range entries {
			r.onEvict(key, value)
		}
	}
}

// Len reports the number of live entries.
func (r *Recency) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Recency) touchLocked(key string) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			r.order = append(r.order, key)
			return
		}
	}
}
