package redikit

import (
	"context"
	"fmt"
)

// Batch invokes f with a context in which every command issued on this
// cache shares one connection. The connection is borrowed before f is
// called and released after it returns, even on error or panic. When
// ctx already belongs to a batch of this cache, f simply runs on the
// enclosing batch's connection and the outermost batch releases it.
//
// Commands that depend on connection state, such as Select, are only
// meaningful inside a batch.
func (c *Cache) Batch(ctx context.Context, f func(ctx context.Context) error) error {
	if _, ok := c.pinned(ctx); ok {
		return f(ctx)
	}

	conn, err := c.timedBorrow(ctx)
	if err != nil {
		return err
	}

	pc := &pinnedConn{conn: conn}

	completed := false
	defer func() {
		c.releasePinned(pc, completed)
	}()

	err = f(c.withPinned(ctx, pc))
	completed = true
	return err
}

// Call runs f in a batch on the main cache of the registry and returns
// its result.
func Call[T any](ctx context.Context, registry *Registry, f func(ctx context.Context, cache *Cache) (T, error)) (T, error) {
	cache, ok := registry.Main()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: no main cache registered", ErrNotFound)
	}

	return call(ctx, cache, f)
}

// CallOn runs f in a batch on the named cache of the registry and
// returns its result.
func CallOn[T any](ctx context.Context, registry *Registry, name string, f func(ctx context.Context, cache *Cache) (T, error)) (T, error) {
	cache, ok := registry.Lookup(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return call(ctx, cache, f)
}

func call[T any](ctx context.Context, cache *Cache, f func(ctx context.Context, cache *Cache) (T, error)) (result T, err error) {
	err = cache.Batch(ctx, func(ctx context.Context) (err error) {
		result, err = f(ctx, cache)
		return err
	})

	return result, err
}

// Return the pinned connection to the pool. Failures here are logged
// and never replace the error of the batch function.
func (c *Cache) releasePinned(pc *pinnedConn, completed bool) {
	conn, selected, err := pc.unpin()
	if !completed && err == nil {
		err = errAborted
	}

	if err == nil && selected {
		if _, selectErr := conn.Do("SELECT", c.database); selectErr != nil {
			c.logger.Printf("Could not restore database %d for %s (%s)", c.database, c.name, selectErr.Error())
			err = connErr{selectErr}
		}
	}

	c.release(conn, err)
}
