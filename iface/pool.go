package iface

import (
	"context"
	"time"
)

// Pool abstracts a fixed-size Redis connection pool.
type Pool interface {
	// Close will drain all available connections from the pool.
	// Every live connection is closed. This method blocks until all
	// borrowed connections are released. Borrows made after Close
	// fail.
	Close()

	// Borrow will block until a connection value is available in
	// the pool or the context is canceled. If the connection is nil,
	// then a new connection is dialed in its place. A failed borrow
	// returns an error wrapping the cause (context error, dial error,
	// or closed pool).
	Borrow(ctx context.Context) (Conn, error)

	// BorrowTimeout is like borrow, but will return an error if no
	// value is returned to the pool before the given timeout elapses.
	BorrowTimeout(ctx context.Context, timeout time.Duration) (Conn, error)

	// Release returns a connection to the pool. This method must
	// be called exactly once for each successful call to a Borrow
	// method. A connection which encountered an error should be
	// returned to the pool as a nil value.
	Release(conn Conn)
}
