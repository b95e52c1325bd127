package redikit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/efritz/glock"
	"github.com/efritz/overcurrent"

	"github.com/efritz/redikit/iface"
)

type (
	// Pool abstracts a fixed-size Redis connection pool.
	Pool = iface.Pool

	pool struct {
		dialer         DialFunc
		capacity       int
		logger         Logger
		breakerFunc    BreakerFunc
		clock          glock.Clock
		connections    chan Conn
		nilConnections chan Conn
		dialMutex      sync.Mutex
		stateMutex     sync.RWMutex
		closed         bool
		drained        bool
		done           chan struct{}
	}

	// BreakerFunc bridges the interface between the Call function of
	// an overcurrent breaker and an overcurrent registry.
	BreakerFunc func(overcurrent.BreakerFunc) error
)

var errPoolClosed = fmt.Errorf("%w: %w", ErrNoConnection, ErrClosed)

func noopBreakerFunc(f overcurrent.BreakerFunc) error {
	return f(context.Background())
}

// NewPool creates a pool with initially nil-connections.
func NewPool(
	dialer DialFunc,
	capacity int,
	logger Logger,
	breakerFunc BreakerFunc,
	clock glock.Clock,
) Pool {
	if clock == nil {
		clock = glock.NewRealClock()
	}

	p := &pool{
		dialer:         dialer,
		capacity:       capacity,
		logger:         logger,
		breakerFunc:    breakerFunc,
		clock:          clock,
		connections:    make(chan Conn, capacity),
		nilConnections: make(chan Conn, capacity),
		done:           make(chan struct{}),
	}

	// Set the capacity of the pool. Each time a nil value is borrowed, a new
	// connection is established and used in its place.

	for i := 0; i < p.capacity; i++ {
		p.nilConnections <- nil
	}

	return p
}

// Close rejects new borrows, wakes blocked borrowers, and then waits
// for every borrowed slot to come back so its connection can be closed.
// Calling Close more than once has no effect.
func (p *pool) Close() {
	p.stateMutex.Lock()
	if p.closed {
		p.stateMutex.Unlock()
		return
	}

	p.closed = true
	close(p.done)
	p.stateMutex.Unlock()

	for i := 0; i < p.capacity; i++ {
		var conn Conn
		select {
		case conn = <-p.connections:
		case conn = <-p.nilConnections:
		}

		p.closeConn(conn)
	}

	p.stateMutex.Lock()
	p.drained = true
	p.stateMutex.Unlock()
}

func (p *pool) Borrow(ctx context.Context) (Conn, error) {
	if conn, err := p.get(ctx, nil); conn != nil || err != nil {
		return conn, err
	}

	return p.dial()
}

func (p *pool) BorrowTimeout(ctx context.Context, timeout time.Duration) (Conn, error) {
	if conn, err := p.get(ctx, &timeout); conn != nil || err != nil {
		return conn, err
	}

	return p.dial()
}

// Release returns a slot to the pool. Once the pool has been drained by
// Close there is nothing waiting for the slot, so a live connection is
// closed instead.
func (p *pool) Release(conn Conn) {
	p.stateMutex.RLock()
	defer p.stateMutex.RUnlock()

	if p.drained {
		p.closeConn(conn)
		return
	}

	p.put(conn)
}

//
// Pool Helper Functions

// Get a value from the pool. If timeout is nil, no timeout is applied.
// A context that is already done never receives a slot, even if one is
// free.
func (p *pool) get(ctx context.Context, timeout *time.Duration) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoConnection, err)
	}

	if p.isClosed() {
		return nil, errPoolClosed
	}

	conn, err := p.receive(ctx, timeout)
	if err != nil {
		return nil, err
	}

	if p.isClosed() {
		// Close is waiting for this slot
		p.put(conn)
		return nil, errPoolClosed
	}

	return conn, nil
}

// This method attempts to read from the non-nil connection channel first
// in order to minimize the number of open connections when the pool is
// not under heavy concurrent load.
func (p *pool) receive(ctx context.Context, timeout *time.Duration) (Conn, error) {
	select {
	case conn := <-p.connections:
		return conn, nil
	default:
	}

	select {
	case conn := <-p.connections:
		return conn, nil

	case conn := <-p.nilConnections:
		return conn, nil

	case <-makeTimeoutChan(timeout, p.clock):
		return nil, fmt.Errorf("%w: timed out after %s", ErrNoConnection, *timeout)

	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNoConnection, ctx.Err())

	case <-p.done:
		return nil, errPoolClosed
	}
}

// Dial a new Redis connection. The call to the dialer function is wrapped
// in a circuit breaker so that if the remote end is down we are not going
// to hammer it. The dial error is returned to the borrower.
func (p *pool) dial() (Conn, error) {
	p.dialMutex.Lock()
	defer p.dialMutex.Unlock()

	if p.isClosed() {
		p.put(nil)
		return nil, errPoolClosed
	}

	var conn Conn
	err := p.breakerFunc(func(ctx context.Context) error {
		temp, err := p.dialer()
		conn = temp
		return err
	})

	if err != nil {
		// We were dialing a nil connection, put this back in the pool
		// so that we're not draining our pool on connection errors.
		p.put(nil)

		p.logger.Printf("Could not connect to Redis (%s)", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrNoConnection, err)
	}

	p.logger.Printf("Established a new connection with Redis")
	return conn, nil
}

func (p *pool) put(conn Conn) {
	if conn == nil {
		p.nilConnections <- conn
	} else {
		p.connections <- conn
	}
}

func (p *pool) closeConn(conn Conn) {
	if conn == nil {
		return
	}

	if err := conn.Close(); err != nil {
		p.logger.Printf("Could not close connection (%s)", err.Error())
	}
}

func (p *pool) isClosed() bool {
	p.stateMutex.RLock()
	defer p.stateMutex.RUnlock()
	return p.closed
}

var blockingChan = make(chan time.Time)

// Wraps time.After around a possibly nil-timeout. When timeout is nil this
// method will return a channel which is always open but never written to.
func makeTimeoutChan(timeout *time.Duration, clock glock.Clock) <-chan time.Time {
	if timeout == nil {
		return blockingChan
	}

	return clock.After(*timeout)
}
