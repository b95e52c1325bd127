package redikit

import (
	"context"
	"fmt"
	"sort"

	"github.com/gomodule/redigo/redis"
)

// HSet sets field in the hash stored at key. It returns true if the
// field is new and false if an existing value was overwritten.
func (c *Cache) HSet(ctx context.Context, key, field, value string) (bool, error) {
	return redis.Bool(c.Do(ctx, "HSET", key, field, value))
}

// HMSet sets several fields of the hash stored at key at once.
func (c *Cache) HMSet(ctx context.Context, key string, hash map[string]string) error {
	if len(hash) == 0 {
		return fmt.Errorf("%w: HMSET requires at least one field", ErrInvalidArgument)
	}

	fields := make([]string, 0, len(hash))
	for field := range hash {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	args := make([]interface{}, 0, 1+len(hash)*2)
	args = append(args, key)
	for _, field := range fields {
		args = append(args, field, hash[field])
	}

	return statusReply(c.Do(ctx, "HMSET", args...))
}

// HGet returns the value of field in the hash stored at key.
func (c *Cache) HGet(ctx context.Context, key, field string) (string, bool, error) {
	return optionalString(c.Do(ctx, "HGET", key, field))
}

// HMGet returns the values of the given fields in order. Missing fields
// yield an empty string.
func (c *Cache) HMGet(ctx context.Context, key string, fields ...string) ([]string, error) {
	if err := requireArgs("HMGET", len(fields)); err != nil {
		return nil, err
	}

	return redis.Strings(c.Do(ctx, "HMGET", stringArgs([]interface{}{key}, fields)...))
}

// HDel removes fields from the hash stored at key and returns the number removed.
func (c *Cache) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if err := requireArgs("HDEL", len(fields)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "HDEL", stringArgs([]interface{}{key}, fields)...))
}

// HExists determines if field exists in the hash stored at key.
func (c *Cache) HExists(ctx context.Context, key, field string) (bool, error) {
	return redis.Bool(c.Do(ctx, "HEXISTS", key, field))
}

// HGetAll returns every field and value of the hash stored at key.
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return redis.StringMap(c.Do(ctx, "HGETALL", key))
}

// HIncrBy increments the integer field of a hash by delta and returns the new value.
func (c *Cache) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	return redis.Int64(c.Do(ctx, "HINCRBY", key, field, delta))
}

// HIncrByFloat increments the float field of a hash by delta and returns the new value.
func (c *Cache) HIncrByFloat(ctx context.Context, key, field string, delta float64) (float64, error) {
	return redis.Float64(c.Do(ctx, "HINCRBYFLOAT", key, field, delta))
}

// HVals returns all values of the hash stored at key.
func (c *Cache) HVals(ctx context.Context, key string) ([]string, error) {
	return redis.Strings(c.Do(ctx, "HVALS", key))
}

// HKeys returns all field names of the hash stored at key.
func (c *Cache) HKeys(ctx context.Context, key string) ([]string, error) {
	return redis.Strings(c.Do(ctx, "HKEYS", key))
}

// HLen returns the number of fields in the hash stored at key.
func (c *Cache) HLen(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "HLEN", key))
}
