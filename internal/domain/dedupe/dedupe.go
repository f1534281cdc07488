// Package dedupe remembers which scoring pairs were already settled so a
// process does not retry pairs that can never produce a score.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50_000

// Deduper records settled pair keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was recorded and records it if not.
	// Returns true if key was already recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Seen reports whether key is recorded without recording it.
	Seen(ctx context.Context, key string) bool

	// Unrecord forgets key so a later run can pick the pair up again.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// settledSet implements Deduper. Bounded mode uses an LRU whose recency is
// never refreshed by lookups, so eviction drops the oldest recorded key.
type settledSet struct {
	maxSize int

	bounded *lru.Cache[string, struct{}]

	mu        sync.Mutex
	unbounded map[string]struct{}
}

// NewInMemoryDeduper creates a settled-pair set with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &settledSet{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize > 0 {
		// lru.New only fails for non-positive sizes.
		d.bounded, _ = lru.New[string, struct{}](d.maxSize)
	} else {
		d.unbounded = make(map[string]struct{})
	}
	return d
}

func (d *settledSet) SeenAndRecord(_ context.Context, key string) bool {
	if d.bounded != nil {
		seen, _ := d.bounded.ContainsOrAdd(key, struct{}{})
		return seen
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.unbounded[key]; ok {
		return true
	}
	d.unbounded[key] = struct{}{}
	return false
}

func (d *settledSet) Seen(_ context.Context, key string) bool {
	if d.bounded != nil {
		return d.bounded.Contains(key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.unbounded[key]
	return ok
}

func (d *settledSet) Unrecord(_ context.Context, key string) {
	if d.bounded != nil {
		d.bounded.Remove(key)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.unbounded, key)
}

func (d *settledSet) Size() int64 {
	if d.bounded != nil {
		return int64(d.bounded.Len())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.unbounded))
}
