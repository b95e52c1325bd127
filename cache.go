package redikit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bradhe/stopwatch"
	"github.com/efritz/backoff"
	"github.com/efritz/glock"
	"github.com/efritz/overcurrent"
)

type (
	// Cache is the facade for one logical Redis cache. Every command
	// borrows a connection from the pool, performs exactly one remote
	// call, and returns the connection. When the context carries a
	// connection pinned by Batch for this cache, that connection is
	// used instead and ownership stays with the batch.
	Cache struct {
		name           string
		database       int
		pool           Pool
		borrowTimeout  *time.Duration
		staleRetries   int
		backoffFactory BackoffFactory
		clock          glock.Clock
		logger         Logger
	}

	cacheConfig struct {
		password       string
		database       int
		connectTimeout time.Duration
		readTimeout    time.Duration
		writeTimeout   time.Duration
		poolCapacity   int
		breakerFunc    BreakerFunc
		clock          glock.Clock
		borrowTimeout  *time.Duration
		staleRetries   int
		backoffFactory BackoffFactory
		dialer         DialFunc
		logger         Logger
	}

	// ConfigFunc is a function used to initialize a new cache.
	ConfigFunc func(*cacheConfig)

	// BackoffFactory creates the backoff used to pace the retries of
	// a single command.
	BackoffFactory func() backoff.Backoff
)

func defaultBackoffFactory() backoff.Backoff {
	return backoff.NewExponentialBackoff(time.Millisecond*10, time.Second)
}

// NewCache creates a new Cache named name which dials the Redis
// server at addr.
func NewCache(name, addr string, configs ...ConfigFunc) (*Cache, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: cache name can not be blank", ErrInvalidArgument)
	}

	config := &cacheConfig{
		password:       "",
		database:       0,
		connectTimeout: time.Second * 5,
		writeTimeout:   time.Second * 5,
		readTimeout:    time.Second * 5,
		poolCapacity:   10,
		breakerFunc:    noopBreakerFunc,
		clock:          glock.NewRealClock(),
		borrowTimeout:  nil,
		staleRetries:   0,
		backoffFactory: defaultBackoffFactory,
		logger:         &defaultLogger{},
	}

	for _, f := range configs {
		f(config)
	}

	if config.poolCapacity <= 0 {
		return nil, fmt.Errorf("%w: pool capacity must be positive", ErrInvalidArgument)
	}

	dialer := config.dialer
	if dialer == nil {
		dialer = makeDialer(addr, config)
	}

	return &Cache{
		name:     name,
		database: config.database,
		pool: NewPool(
			dialer,
			config.poolCapacity,
			config.logger,
			config.breakerFunc,
			config.clock,
		),
		borrowTimeout:  config.borrowTimeout,
		staleRetries:   config.staleRetries,
		backoffFactory: config.backoffFactory,
		clock:          config.clock,
		logger:         config.logger,
	}, nil
}

// WithPassword sets the password (default is "").
func WithPassword(password string) ConfigFunc {
	return func(c *cacheConfig) { c.password = password }
}

// WithDatabase sets the database index (default is 0). Connections
// that switch database inside a batch are switched back to this one
// before they are returned to the pool.
func WithDatabase(database int) ConfigFunc {
	return func(c *cacheConfig) { c.database = database }
}

// WithConnectTimeout sets the connect timeout for new connections
// (default is 5 seconds).
func WithConnectTimeout(timeout time.Duration) ConfigFunc {
	return func(c *cacheConfig) { c.connectTimeout = timeout }
}

// WithReadTimeout sets the read timeout for all connections in the
// pool (default is 5 seconds).
func WithReadTimeout(timeout time.Duration) ConfigFunc {
	return func(c *cacheConfig) { c.readTimeout = timeout }
}

// WithWriteTimeout sets the write timeout for all connections in the
// pool (default is 5 seconds).
func WithWriteTimeout(timeout time.Duration) ConfigFunc {
	return func(c *cacheConfig) { c.writeTimeout = timeout }
}

// WithPoolCapacity sets the maximum number of concurrent connections
// that can be in use at once (default is 10).
func WithPoolCapacity(capacity int) ConfigFunc {
	return func(c *cacheConfig) { c.poolCapacity = capacity }
}

// WithBreaker sets the circuit breaker instance to use around new
// connections. The default uses a no-op circuit breaker.
func WithBreaker(breaker overcurrent.CircuitBreaker) ConfigFunc {
	return func(c *cacheConfig) { c.breakerFunc = breaker.Call }
}

// WithBreakerRegistry sets the overcurrent registry to use and the
// name of the circuit breaker config to use around new connections.
// The default uses a no-op circuit breaker.
func WithBreakerRegistry(registry overcurrent.Registry, name string) ConfigFunc {
	return func(c *cacheConfig) {
		c.breakerFunc = func(f overcurrent.BreakerFunc) error {
			return registry.Call(name, f, nil)
		}
	}
}

// WithBorrowTimeout sets the maximum time to wait for a connection
// from the pool. By default a borrow blocks until a connection is
// available or the context is canceled.
func WithBorrowTimeout(timeout time.Duration) ConfigFunc {
	return func(c *cacheConfig) { c.borrowTimeout = &timeout }
}

// WithStaleRetries sets the number of times a command issued outside
// of a batch is re-sent on a fresh connection after the pooled one
// turned out to be closed by the remote end (default is 0).
func WithStaleRetries(retries int) ConfigFunc {
	return func(c *cacheConfig) { c.staleRetries = retries }
}

// WithBackoff sets the factory for the backoff used between stale
// connection retries.
func WithBackoff(factory BackoffFactory) ConfigFunc {
	return func(c *cacheConfig) { c.backoffFactory = factory }
}

// WithDialer replaces the TCP dialer built from the cache address.
func WithDialer(dialer DialFunc) ConfigFunc {
	return func(c *cacheConfig) { c.dialer = dialer }
}

// WithLogger sets the logger instance (the default will use Go's
// builtin logging library).
func WithLogger(logger Logger) ConfigFunc {
	return func(c *cacheConfig) { c.logger = logger }
}

func withClock(clock glock.Clock) ConfigFunc {
	return func(c *cacheConfig) { c.clock = clock }
}

//
// Cache Implementation

// Name returns the logical name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Close will close all open connections to the remote Redis server.
func (c *Cache) Close() {
	c.pool.Close()
}

// Do runs the command on the remote Redis server and returns its raw
// response. Arguments are passed through unchanged, except that SELECT
// is handled by Select so the database is restored after the batch.
func (c *Cache) Do(ctx context.Context, command string, args ...interface{}) (interface{}, error) {
	if isSelect(command) {
		database, err := selectArg(args)
		if err != nil {
			return nil, err
		}

		if err := c.Select(ctx, database); err != nil {
			return nil, err
		}

		return "OK", nil
	}

	var result interface{}
	err := c.withRetry(ctx, func(conn Conn) (err error) {
		result, err = conn.Do(command, args...)
		return err
	})

	return result, err
}

// Ping checks the liveness of the remote server.
func (c *Cache) Ping(ctx context.Context) error {
	reply, err := c.Do(ctx, "PING")
	if err != nil {
		return err
	}

	if status, ok := reply.(string); !ok || status != "PONG" {
		return fmt.Errorf("unexpected ping reply %v", reply)
	}

	return nil
}

//
// Cache Helper Functions

var errAborted = connErr{errors.New("command aborted before completion")}

// Invoke f with a connection. Outside of a batch, f is retried on a
// fresh connection while the previous one was found stale.
func (c *Cache) withRetry(ctx context.Context, f func(conn Conn) error) error {
	if pc, ok := c.pinned(ctx); ok {
		return pc.use(f)
	}

	var b backoff.Backoff
	for attempt := 0; ; attempt++ {
		err := c.withBorrowed(ctx, f)
		if err == nil || attempt >= c.staleRetries || !shouldRetry(err) {
			return err
		}

		if b == nil {
			b = c.backoffFactory()
		}

		interval := b.NextInterval()
		c.logger.Printf("Connection from pool was stale, retrying in %s", interval)

		select {
		case <-c.clock.After(interval):
		case <-ctx.Done():
			return err
		}
	}
}

// Invoke f with the pinned connection or, if there is none, with a
// connection borrowed for the duration of the call.
func (c *Cache) withConn(ctx context.Context, f func(conn Conn) error) error {
	if pc, ok := c.pinned(ctx); ok {
		return pc.use(f)
	}

	return c.withBorrowed(ctx, f)
}

// Borrow a connection, invoke f with it, and release it back to the
// pool. The connection is released even if f panics, in which case
// it is treated as broken.
func (c *Cache) withBorrowed(ctx context.Context, f func(conn Conn) error) (err error) {
	conn, err := c.timedBorrow(ctx)
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if !completed {
			err = errAborted
		}

		c.release(conn, err)
	}()

	err = f(conn)
	completed = true
	return err
}

// Borrows and logs the time it took to return from blocking on the
// pool's borrow method.
func (c *Cache) timedBorrow(ctx context.Context) (Conn, error) {
	start := stopwatch.Start()
	conn, err := c.borrow(ctx)
	elapsed := start.Stop().Milliseconds()

	if err != nil {
		c.logger.Printf("Could not borrow connection for %s after %vms (%s)", c.name, elapsed, err.Error())
		return nil, err
	}

	c.logger.Printf("Received connection for %s after %vms", c.name, elapsed)
	return conn, nil
}

// Borrows from the pool using the correct method (depending on if
// a borrow timeout was configured on this cache).
func (c *Cache) borrow(ctx context.Context) (Conn, error) {
	if c.borrowTimeout == nil {
		return c.pool.Borrow(ctx)
	}

	return c.pool.BorrowTimeout(ctx, *c.borrowTimeout)
}

// Close a broken connection and release it back to the pool as nil.
// Bad connections never go back to the pool, but the slot must be
// returned (if we do not do this on some code path then the capacity
// of the pool permanently decreases). Redis error replies leave the
// connection usable, so it is returned as is.
func (c *Cache) release(conn Conn, err error) {
	if isBroken(err) {
		if closeErr := conn.Close(); closeErr != nil {
			c.logger.Printf("Could not close broken connection for %s (%s)", c.name, closeErr.Error())
		}

		conn = nil
	}

	c.pool.Release(conn)
}

// Given an error, determine if we should try to re-invoke the
// command on another (possibly fresh) connection.
func shouldRetry(err error) bool {
	return isBroken(err) && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF))
}
