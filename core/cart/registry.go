package cart

import (
	"context"
	"sync"
	"time"
)

// DefaultStorageKey is the storage key of the anonymous local cart.
const DefaultStorageKey = "atlantis_cart"

// Registry lazily creates and caches one Engine per owner, all sharing a Storage.
type Registry struct {
	mu      sync.Mutex
	storage Storage
	baseKey string
	opts    []Option
	engines map[string]*entry
}

type entry struct {
	engine   *Engine
	lastUsed time.Time
}

// NewRegistry returns a Registry. An empty baseKey means DefaultStorageKey.
func NewRegistry(storage Storage, baseKey string, opts ...Option) *Registry {
	if baseKey == "" {
		baseKey = DefaultStorageKey
	}
	return &Registry{
		storage: storage,
		baseKey: baseKey,
		opts:    opts,
		engines: make(map[string]*entry),
	}
}

// Key returns the storage key of owner's cart. The empty owner is the local cart.
func (r *Registry) Key(owner string) string {
	if owner == "" {
		return r.baseKey
	}
	return r.baseKey + ":" + owner
}

// Get returns the engine of owner, loading it from storage on first use.
// Cached engines over a shared storage are reloaded before being returned.
func (r *Registry) Get(ctx context.Context, owner string) *Engine {
	if e := r.cached(owner); e != nil {
		e.Reload(ctx)
		return e
	}

	// storage I/O happens outside the registry lock
	e := New(ctx, NewJSONStore(r.storage, r.Key(owner)), r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ent, ok := r.engines[owner]; ok {
		ent.lastUsed = time.Now()
		return ent.engine
	}
	r.engines[owner] = &entry{engine: e, lastUsed: time.Now()}
	return e
}

func (r *Registry) cached(owner string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.engines[owner]
	if !ok {
		return nil
	}
	ent.lastUsed = time.Now()
	return ent.engine
}

// Len returns the number of cached engines.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

// Evict drops the cached engine of owner. The stored cart is left untouched.
func (r *Registry) Evict(owner string) {
	r.mu.Lock()
	delete(r.engines, owner)
	r.mu.Unlock()
}

// Sweep evicts the engines last used before cutoff and returns how many were dropped.
// Stored carts are left untouched.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for owner, ent := range r.engines {
		if ent.lastUsed.Before(cutoff) {
			delete(r.engines, owner)
			n++
		}
	}
	return n
}

// Purge erases the stored cart of owner and evicts its engine.
func (r *Registry) Purge(ctx context.Context, owner string) error {
	r.mu.Lock()
	ent, ok := r.engines[owner]
	delete(r.engines, owner)
	r.mu.Unlock()

	if ok {
		return ent.engine.Clear(ctx)
	}
	return r.storage.Delete(ctx, r.Key(owner))
}
