package redikit

import "errors"

var (
	// ErrNoConnection is returned when a connection cannot be borrowed
	// from the pool, either because the borrow timeout elapsed, the
	// context was canceled, the cache was closed, or a new connection
	// could not be dialed. The cause is wrapped alongside it.
	ErrNoConnection = errors.New("no connection available in pool")

	// ErrClosed is wrapped by errors for commands issued after the
	// cache was closed.
	ErrClosed = errors.New("cache is closed")

	// ErrInvalidArgument is returned for malformed calls, such as an
	// odd-length key/value list or a blank cache name. It is raised
	// before any connection is borrowed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateName is returned when registering a cache under a
	// name that is already in use.
	ErrDuplicateName = errors.New("duplicate cache name")

	// ErrNotFound is returned when a named cache is not registered, or
	// when no main cache has been designated.
	ErrNotFound = errors.New("cache not found")
)
