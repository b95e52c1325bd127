package redikit

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aphistic/sweet"
	. "github.com/onsi/gomega"
)

type BatchSuite struct{}

func (s *BatchSuite) TestBatchBorrowsOnce(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		for i := 0; i < 10; i++ {
			if _, err := c.Do(ctx, "foo", i); err != nil {
				return err
			}
		}

		return nil
	})

	Expect(err).To(BeNil())
	Expect(conn.DoFuncCallCount).To(Equal(10))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeIdenticalTo(conn))
}

func (s *BatchSuite) TestBatchPreservesOrder(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		c.Set(ctx, "a", "1")
		c.Get(ctx, "a")
		c.Del(ctx, "a")
		return nil
	})

	Expect(err).To(BeNil())
	Expect(conn.DoFuncCallParams).To(Equal([]ConnDoParamSet{
		{"SET", []interface{}{"a", "1"}},
		{"GET", []interface{}{"a"}},
		{"DEL", []interface{}{"a"}},
	}))
}

func (s *BatchSuite) TestNestedBatchSharesConnection(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		c.Do(ctx, "outer")

		return c.Batch(ctx, func(ctx context.Context) error {
			c.Do(ctx, "inner")

			return c.Batch(ctx, func(ctx context.Context) error {
				_, err := c.Do(ctx, "innermost")
				return err
			})
		})
	})

	Expect(err).To(BeNil())
	Expect(conn.DoFuncCallCount).To(Equal(3))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchRemoteFailure(t sweet.T) {
	var (
		conn      = NewMockConn()
		pool      = makeBorrowingPool(conn)
		c         = makeCache(pool, nil)
		remoteErr = errors.New("ERR value is not an integer or out of range")
	)

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		if command == "INCR" {
			return nil, remoteErr
		}

		return "OK", nil
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		if err := c.Set(ctx, "a", "x"); err != nil {
			return err
		}

		if _, err := c.Incr(ctx, "a"); err != nil {
			return err
		}

		return c.Set(ctx, "b", "y")
	})

	Expect(err).To(BeIdenticalTo(remoteErr))
	Expect(conn.DoFuncCallCount).To(Equal(2))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeIdenticalTo(conn))
}

func (s *BatchSuite) TestBatchNoConnection(t sweet.T) {
	var (
		pool   = NewMockPool()
		c      = makeCache(pool, nil)
		called = false
	)

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	Expect(err).To(Equal(ErrNoConnection))
	Expect(called).To(BeFalse())
	Expect(pool.ReleaseFuncCallCount).To(Equal(0))
}

func (s *BatchSuite) TestBatchBrokenConnection(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		return nil, connErr{io.EOF}
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		c.Do(ctx, "first")
		_, err := c.Do(ctx, "second")
		return err
	})

	Expect(errors.Is(err, io.EOF)).To(BeTrue())

	// Second command fails without touching the dead connection
	Expect(conn.DoFuncCallCount).To(Equal(1))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeNil())
	Expect(conn.CloseFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchNeverRetries(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	c.staleRetries = 5

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		return nil, connErr{io.EOF}
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		_, err := c.Do(ctx, "foo")
		return err
	})

	Expect(errors.Is(err, io.EOF)).To(BeTrue())
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchPanicReleases(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	Expect(func() {
		c.Batch(context.Background(), func(ctx context.Context) error {
			c.Do(ctx, "foo")
			panic("boom")
		})
	}).To(Panic())

	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeNil())
}

func (s *BatchSuite) TestBatchRestoresDatabase(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	c.database = 2

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		return "OK", nil
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		if err := c.Select(ctx, 5); err != nil {
			return err
		}

		return c.Set(ctx, "a", "1")
	})

	Expect(err).To(BeNil())
	Expect(conn.DoFuncCallParams).To(Equal([]ConnDoParamSet{
		{"SELECT", []interface{}{5}},
		{"SET", []interface{}{"a", "1"}},
		{"SELECT", []interface{}{2}},
	}))

	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeIdenticalTo(conn))
}

func (s *BatchSuite) TestBatchRestoreFailureClosesConnection(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		if command == "SELECT" && args[0] == 0 {
			return nil, errors.New("ERR DB index is out of range")
		}

		return "OK", nil
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		return c.Select(ctx, 1)
	})

	// Release problems never replace the result of the batch
	Expect(err).To(BeNil())
	Expect(pool.ReleaseFuncCallParams[0].Arg0).To(BeNil())
	Expect(conn.CloseFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchUseAfterFinish(t sweet.T) {
	var (
		conn  = NewMockConn()
		pool  = makeBorrowingPool(conn)
		c     = makeCache(pool, nil)
		inner context.Context
	)

	c.Batch(context.Background(), func(ctx context.Context) error {
		inner = ctx
		return nil
	})

	_, err := c.Do(inner, "foo")
	Expect(errors.Is(err, ErrNoConnection)).To(BeTrue())
	Expect(conn.DoFuncCallCount).To(Equal(0))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchIsPerCache(t sweet.T) {
	var (
		conn1 = NewMockConn()
		conn2 = NewMockConn()
		pool1 = makeBorrowingPool(conn1)
		pool2 = makeBorrowingPool(conn2)
		c1    = makeCache(pool1, nil)
		c2    = makeCache(pool2, nil)
	)

	err := c1.Batch(context.Background(), func(ctx context.Context) error {
		c1.Do(ctx, "foo")
		c2.Do(ctx, "bar")
		c2.Do(ctx, "baz")
		return nil
	})

	Expect(err).To(BeNil())
	Expect(pool1.BorrowFuncCallCount).To(Equal(1))
	Expect(pool2.BorrowFuncCallCount).To(Equal(2))
	Expect(pool2.ReleaseFuncCallCount).To(Equal(2))
}

func (s *BatchSuite) TestCall(t sweet.T) {
	var (
		conn     = NewMockConn()
		pool     = makeBorrowingPool(conn)
		c        = makeCache(pool, nil)
		registry = NewRegistry()
	)

	Expect(registry.Register(c)).To(BeNil())

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		return int64(len(args)), nil
	}

	result, err := Call(context.Background(), registry, func(ctx context.Context, cache *Cache) (int64, error) {
		a, err := cache.Incr(ctx, "a")
		if err != nil {
			return 0, err
		}

		b, err := cache.IncrBy(ctx, "b", 3)
		return a + b, err
	})

	Expect(err).To(BeNil())
	Expect(result).To(Equal(int64(3)))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestCallNoMain(t sweet.T) {
	_, err := Call(context.Background(), NewRegistry(), func(ctx context.Context, cache *Cache) (string, error) {
		return "", nil
	})

	Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
}

func (s *BatchSuite) TestCallOn(t sweet.T) {
	var (
		conn1    = NewMockConn()
		conn2    = NewMockConn()
		pool1    = makeBorrowingPool(conn1)
		pool2    = makeBorrowingPool(conn2)
		c1       = makeNamedCache("a", pool1)
		c2       = makeNamedCache("b", pool2)
		registry = NewRegistry()
	)

	Expect(registry.Register(c1)).To(BeNil())
	Expect(registry.Register(c2)).To(BeNil())

	name, err := CallOn(context.Background(), registry, "b", func(ctx context.Context, cache *Cache) (string, error) {
		_, err := cache.Do(ctx, "foo")
		return cache.Name(), err
	})

	Expect(err).To(BeNil())
	Expect(name).To(Equal("b"))
	Expect(pool1.BorrowFuncCallCount).To(Equal(0))
	Expect(pool2.BorrowFuncCallCount).To(Equal(1))
	Expect(conn2.DoFuncCallCount).To(Equal(1))

	_, err = CallOn(context.Background(), registry, "c", func(ctx context.Context, cache *Cache) (string, error) {
		return "", nil
	})

	Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
}

func (s *BatchSuite) TestRegistryBatch(t sweet.T) {
	var (
		conn      = NewMockConn()
		pool      = makeBorrowingPool(conn)
		registry  = NewRegistry()
		remoteErr = errors.New("utoh")
	)

	Expect(registry.Register(makeCache(pool, nil))).To(BeNil())

	err := registry.Batch(context.Background(), func(ctx context.Context, cache *Cache) error {
		cache.Do(ctx, "foo")
		cache.Do(ctx, "bar")
		return remoteErr
	})

	Expect(err).To(BeIdenticalTo(remoteErr))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
}

func (s *BatchSuite) TestBatchCanceledContext(t sweet.T) {
	var (
		dials       = 0
		ctx, cancel = context.WithCancel(context.Background())
		called      = false
	)

	c, err := NewCache("sessions", "unused", WithLogger(testLogger), WithDialer(func() (Conn, error) {
		dials++
		return NewMockConn(), nil
	}))

	Expect(err).To(BeNil())
	defer c.Close()

	cancel()

	err = c.Batch(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	Expect(errors.Is(err, ErrNoConnection)).To(BeTrue())
	Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	Expect(called).To(BeFalse())
	Expect(dials).To(Equal(0))
}

func (s *BatchSuite) TestBatchForkedGoroutinesShareConnection(t sweet.T) {
	var (
		conn     = NewMockConn()
		pool     = makeBorrowingPool(conn)
		c        = makeCache(pool, nil)
		inFlight int32
		overlaps int32
	)

	conn.DoFunc = func(command string, args ...interface{}) (interface{}, error) {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}

		defer atomic.AddInt32(&inFlight, -1)
		time.Sleep(time.Millisecond)
		return "OK", nil
	}

	err := c.Batch(context.Background(), func(ctx context.Context) error {
		var (
			wg      sync.WaitGroup
			results = make(chan error, 20)
		)

		for i := 0; i < 20; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()
				results <- c.Set(ctx, "a", "b")
			}()
		}

		wg.Wait()
		close(results)

		for err := range results {
			if err != nil {
				return err
			}
		}

		return nil
	})

	Expect(err).To(BeNil())
	Expect(conn.DoFuncCallCount).To(Equal(20))
	Expect(atomic.LoadInt32(&overlaps)).To(Equal(int32(0)))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
}

func makeNamedCache(name string, pool Pool) *Cache {
	c := makeCache(pool, nil)
	c.name = name
	return c
}
