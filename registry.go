package redikit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps logical cache names to caches and designates one of
// them as the main cache, used when no name is given. It is created by
// application start-up code and handed to whatever needs a lookup.
type Registry struct {
	mutex  sync.RWMutex
	caches map[string]*Cache
	main   *Cache
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caches: map[string]*Cache{},
	}
}

// Register adds a cache under its name. The first cache registered
// (while no main cache is designated) becomes the main cache.
func (r *Registry) Register(cache *Cache) error {
	if cache == nil {
		return fmt.Errorf("%w: cache can not be nil", ErrInvalidArgument)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.caches[cache.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, cache.Name())
	}

	r.caches[cache.Name()] = cache

	if r.main == nil {
		r.main = cache
	}

	return nil
}

// SetMain designates the named cache as the main cache. On error the
// current designation is left untouched.
func (r *Registry) SetMain(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: cache name can not be blank", ErrInvalidArgument)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	cache, ok := r.caches[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	r.main = cache
	return nil
}

// Main returns the main cache.
func (r *Registry) Main() (*Cache, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.main, r.main != nil
}

// Lookup returns the cache registered under name.
func (r *Registry) Lookup(name string) (*Cache, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cache, ok := r.caches[name]
	return cache, ok
}

// Remove unregisters the named cache and returns it. The cache is not
// closed. If it was the main cache, no cache is main afterwards until
// SetMain is called or another cache is registered.
func (r *Registry) Remove(name string) (*Cache, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cache, ok := r.caches[name]
	if !ok {
		return nil, false
	}

	delete(r.caches, name)

	if r.main == cache {
		r.main = nil
	}

	return cache, true
}

// Names returns the names of all registered caches in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Close removes every cache from the registry and closes it.
func (r *Registry) Close() {
	for _, name := range r.Names() {
		if cache, ok := r.Remove(name); ok {
			cache.Close()
		}
	}
}

// Batch runs f in a batch on the main cache.
func (r *Registry) Batch(ctx context.Context, f func(ctx context.Context, cache *Cache) error) error {
	_, err := Call(ctx, r, func(ctx context.Context, cache *Cache) (struct{}, error) {
		return struct{}{}, f(ctx, cache)
	})

	return err
}
