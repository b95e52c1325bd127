package redikit

import (
	"errors"

	"github.com/gomodule/redigo/redis"

	"github.com/efritz/redikit/iface"
)

type (
	// Conn abstracts a single, feature-minimal connection to Redis.
	Conn = iface.Conn

	redigoShim struct {
		conn redis.Conn
	}

	// connErr marks an error after which the connection can no longer
	// be used. Redis error replies are never wrapped this way.
	connErr struct{ error }

	// DialFunc creates a connection to Redis or returns an error.
	DialFunc func() (Conn, error)
)

func makeDialer(addr string, config *cacheConfig) DialFunc {
	return func() (Conn, error) {
		conn, err := redis.Dial(
			"tcp",
			addr,
			redis.DialPassword(config.password),
			redis.DialDatabase(config.database),
			redis.DialConnectTimeout(config.connectTimeout),
			redis.DialReadTimeout(config.readTimeout),
			redis.DialWriteTimeout(config.writeTimeout),
		)

		if err != nil {
			return nil, err
		}

		return &redigoShim{conn}, nil
	}
}

func (s *redigoShim) Close() error {
	return s.conn.Close()
}

func (s *redigoShim) Do(command string, args ...interface{}) (interface{}, error) {
	result, err := s.conn.Do(command, args...)
	return result, s.wrapError(err)
}

func (s *redigoShim) Send(command string, args ...interface{}) error {
	return s.wrapError(s.conn.Send(command, args...))
}

func (s *redigoShim) wrapError(err error) error {
	// redigo latches the first fatal error on the connection. Wrap it
	// so the caller closes this connection instead of pooling it.

	if s.conn.Err() != nil {
		return connErr{s.conn.Err()}
	}

	return err
}

func (e connErr) Unwrap() error {
	return e.error
}

func markBroken(err error) error {
	if isBroken(err) {
		return err
	}

	return connErr{err}
}

// isBroken determines if the given error was raised by a connection
// that must not be reused.
func isBroken(err error) bool {
	var ce connErr
	return errors.As(err, &ce)
}
