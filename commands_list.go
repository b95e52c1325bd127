package redikit

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
)

// LIndex returns the element at index of the list stored at key.
// Negative indexes count from the tail.
func (c *Cache) LIndex(ctx context.Context, key string, index int64) (string, bool, error) {
	return optionalString(c.Do(ctx, "LINDEX", key, index))
}

// LLen returns the length of the list stored at key.
func (c *Cache) LLen(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "LLEN", key))
}

// LPop removes and returns the first element of the list stored at key.
func (c *Cache) LPop(ctx context.Context, key string) (string, bool, error) {
	return optionalString(c.Do(ctx, "LPOP", key))
}

// LPush prepends values to the list stored at key and returns the new
// length of the list.
func (c *Cache) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	if err := requireArgs("LPUSH", len(values)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "LPUSH", stringArgs([]interface{}{key}, values)...))
}

// LSet replaces the list element at index.
func (c *Cache) LSet(ctx context.Context, key string, index int64, value string) error {
	return statusReply(c.Do(ctx, "LSET", key, index, value))
}

// LRem removes count occurrences of value from the list stored at key.
// See the LREM documentation for the meaning of the sign of count.
func (c *Cache) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	return redis.Int64(c.Do(ctx, "LREM", key, count, value))
}

// LRange returns the list elements between start and stop (inclusive).
func (c *Cache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return redis.Strings(c.Do(ctx, "LRANGE", key, start, stop))
}

// LTrim trims the list to the elements between start and stop (inclusive).
func (c *Cache) LTrim(ctx context.Context, key string, start, stop int64) error {
	return statusReply(c.Do(ctx, "LTRIM", key, start, stop))
}

// RPop removes and returns the last element of the list stored at key.
func (c *Cache) RPop(ctx context.Context, key string) (string, bool, error) {
	return optionalString(c.Do(ctx, "RPOP", key))
}

// RPopLPush moves the last element of srcKey to the head of dstKey and returns it.
func (c *Cache) RPopLPush(ctx context.Context, srcKey, dstKey string) (string, bool, error) {
	return optionalString(c.Do(ctx, "RPOPLPUSH", srcKey, dstKey))
}

// RPush appends values to the list stored at key and returns the new length.
func (c *Cache) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	if err := requireArgs("RPUSH", len(values)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "RPUSH", stringArgs([]interface{}{key}, values)...))
}

// BLPop blocks until an element can be popped from the head of one of
// the lists or the timeout elapses (a zero timeout blocks forever). The
// result is the pair [key, element], or nil on timeout. The connection
// is held for the whole wait.
func (c *Cache) BLPop(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	if err := requireArgs("BLPOP", len(keys)); err != nil {
		return nil, err
	}

	return optionalStrings(c.Do(ctx, "BLPOP", append(stringArgs(nil, keys), seconds(timeout))...))
}

// BRPop is like BLPop but pops from the tail.
func (c *Cache) BRPop(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	if err := requireArgs("BRPOP", len(keys)); err != nil {
		return nil, err
	}

	return optionalStrings(c.Do(ctx, "BRPOP", append(stringArgs(nil, keys), seconds(timeout))...))
}
