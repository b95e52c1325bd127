package redikit

import (
	"context"
	"fmt"
	"sync"
)

type (
	// pinnedConn holds the one connection a batch borrowed for its
	// cache. Calls through it are serialized, so goroutines forked
	// with the batch context never interleave commands on the wire.
	pinnedConn struct {
		mutex    sync.Mutex
		conn     Conn
		err      error
		selected bool
	}

	pinKey struct {
		cache *Cache
	}
)

var errBatchFinished = fmt.Errorf("%w: batch has already finished", ErrNoConnection)

// pinned returns the connection pinned for this cache by an enclosing
// batch, if any.
func (c *Cache) pinned(ctx context.Context) (*pinnedConn, bool) {
	pc, ok := ctx.Value(pinKey{c}).(*pinnedConn)
	return pc, ok
}

func (c *Cache) withPinned(ctx context.Context, pc *pinnedConn) context.Context {
	return context.WithValue(ctx, pinKey{c}, pc)
}

// use invokes f with the pinned connection. Once the connection is
// broken, further calls fail with the same error without touching it.
func (pc *pinnedConn) use(f func(conn Conn) error) error {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if pc.conn == nil {
		return errBatchFinished
	}

	if pc.err != nil {
		return pc.err
	}

	completed := false
	defer func() {
		if !completed {
			pc.err = errAborted
		}
	}()

	err := f(pc.conn)
	completed = true

	if isBroken(err) {
		pc.err = err
	}

	return err
}

// unpin detaches the connection so that late users see an error, and
// returns it along with the reason it must not be pooled (if any).
func (pc *pinnedConn) unpin() (Conn, bool, error) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	conn := pc.conn
	pc.conn = nil
	return conn, pc.selected, pc.err
}
