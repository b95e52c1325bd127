package redikit

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Set stores value at key. Any previous value is overwritten regardless
// of its type, and any TTL on the key is discarded.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	return statusReply(c.Do(ctx, "SET", key, value))
}

// SetEx stores value at key and expires the key after ttl (whole
// seconds).
func (c *Cache) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	return statusReply(c.Do(ctx, "SETEX", key, seconds(ttl), value))
}

// Get returns the value stored at key. The boolean is false if the
// key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	return optionalString(c.Do(ctx, "GET", key))
}

// GetSet stores value at key and returns the old value.
func (c *Cache) GetSet(ctx context.Context, key, value string) (string, bool, error) {
	return optionalString(c.Do(ctx, "GETSET", key, value))
}

// GetCounter returns the integer value of a counter maintained with
// Incr and friends.
func (c *Cache) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	return optionalInt64(c.Do(ctx, "GET", key))
}

// Del removes the given keys and returns the number of keys removed.
// Keys that do not exist are ignored.
func (c *Cache) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := requireArgs("DEL", len(keys)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "DEL", stringArgs(nil, keys)...))
}

// Keys returns all keys matching pattern. Prefer Scan on large
// keyspaces.
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	return redis.Strings(c.Do(ctx, "KEYS", pattern))
}

// MSet sets several keys at once. The arguments alternate between key
// and value, so an odd number of arguments is rejected before any
// connection is used.
func (c *Cache) MSet(ctx context.Context, keysValues ...string) error {
	if err := requireArgs("MSET", len(keysValues)); err != nil {
		return err
	}

	if len(keysValues)%2 != 0 {
		return fmt.Errorf("%w: MSET requires an even number of arguments, got %d", ErrInvalidArgument, len(keysValues))
	}

	return statusReply(c.Do(ctx, "MSET", stringArgs(nil, keysValues)...))
}

// MGet returns the values of the given keys in order. Keys that do not
// exist yield an empty string.
func (c *Cache) MGet(ctx context.Context, keys ...string) ([]string, error) {
	if err := requireArgs("MGET", len(keys)); err != nil {
		return nil, err
	}

	return redis.Strings(c.Do(ctx, "MGET", stringArgs(nil, keys)...))
}

// Incr increments the counter at key by one and returns the new value.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "INCR", key))
}

// IncrBy increments the counter at key by delta and returns the new value.
func (c *Cache) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return redis.Int64(c.Do(ctx, "INCRBY", key, delta))
}

// Decr decrements the counter at key by one and returns the new value.
func (c *Cache) Decr(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "DECR", key))
}

// DecrBy decrements the counter at key by delta and returns the new value.
func (c *Cache) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return redis.Int64(c.Do(ctx, "DECRBY", key, delta))
}

// Exists determines if key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return redis.Bool(c.Do(ctx, "EXISTS", key))
}

// RandomKey returns a random key of the current database. The boolean
// is false if the database is empty.
func (c *Cache) RandomKey(ctx context.Context) (string, bool, error) {
	return optionalString(c.Do(ctx, "RANDOMKEY"))
}

// Rename renames oldKey to newKey, overwriting newKey if it exists.
func (c *Cache) Rename(ctx context.Context, oldKey, newKey string) error {
	return statusReply(c.Do(ctx, "RENAME", oldKey, newKey))
}

// Move moves key to another database. It returns false if the key was
// not moved.
func (c *Cache) Move(ctx context.Context, key string, database int) (bool, error) {
	return redis.Bool(c.Do(ctx, "MOVE", key, database))
}

// Migrate atomically transfers key to another Redis instance.
func (c *Cache) Migrate(ctx context.Context, host string, port int, key string, database int, timeout time.Duration) error {
	return statusReply(c.Do(ctx, "MIGRATE", host, port, key, database, milliseconds(timeout)))
}

// Select switches the database of the connection pinned by the
// enclosing batch. After the batch the connection is switched back to
// the configured database before it returns to the pool. Outside of a
// batch Select fails with ErrInvalidArgument. A raw SELECT passed to Do
// is handled here as well.
func (c *Cache) Select(ctx context.Context, database int) error {
	pc, ok := c.pinned(ctx)
	if !ok {
		return fmt.Errorf("%w: SELECT is only allowed inside a batch", ErrInvalidArgument)
	}

	return pc.use(func(conn Conn) error {
		if err := statusReply(conn.Do("SELECT", database)); err != nil {
			return err
		}

		pc.selected = database != c.database
		return nil
	})
}

// Expire sets a timeout (whole seconds) on key. It returns false if the
// key does not exist.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return redis.Bool(c.Do(ctx, "EXPIRE", key, seconds(ttl)))
}

// ExpireAt expires key at the given time (second precision).
func (c *Cache) ExpireAt(ctx context.Context, key string, at time.Time) (bool, error) {
	return redis.Bool(c.Do(ctx, "EXPIREAT", key, at.Unix()))
}

// PExpire is like Expire with millisecond precision.
func (c *Cache) PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return redis.Bool(c.Do(ctx, "PEXPIRE", key, milliseconds(ttl)))
}

// PExpireAt is like ExpireAt with millisecond precision.
func (c *Cache) PExpireAt(ctx context.Context, key string, at time.Time) (bool, error) {
	return redis.Bool(c.Do(ctx, "PEXPIREAT", key, at.UnixNano()/int64(time.Millisecond)))
}

// Persist removes the timeout on key.
func (c *Cache) Persist(ctx context.Context, key string) (bool, error) {
	return redis.Bool(c.Do(ctx, "PERSIST", key))
}

// Type returns the type of the value stored at key ("none" if the key
// does not exist).
func (c *Cache) Type(ctx context.Context, key string) (string, error) {
	return redis.String(c.Do(ctx, "TYPE", key))
}

// TTL returns the remaining time to live of key in seconds, -1 if the
// key has no timeout, or -2 if the key does not exist.
func (c *Cache) TTL(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "TTL", key))
}

// PTTL is like TTL in milliseconds.
func (c *Cache) PTTL(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "PTTL", key))
}

// ObjectRefcount returns the number of references to the value at key.
func (c *Cache) ObjectRefcount(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "OBJECT", "REFCOUNT", key))
}

// ObjectIdletime returns the seconds since the value at key was last accessed.
func (c *Cache) ObjectIdletime(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "OBJECT", "IDLETIME", key))
}
