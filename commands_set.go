package redikit

import (
	"context"

	"github.com/gomodule/redigo/redis"
)

// SAdd adds members to the set stored at key and returns the number of
// members that were not already present.
func (c *Cache) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if err := requireArgs("SADD", len(members)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "SADD", stringArgs([]interface{}{key}, members)...))
}

// SCard returns the number of members of the set stored at key.
func (c *Cache) SCard(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "SCARD", key))
}

// SPop removes and returns a random member of the set stored at key.
func (c *Cache) SPop(ctx context.Context, key string) (string, bool, error) {
	return optionalString(c.Do(ctx, "SPOP", key))
}

// SMembers returns all members of the set stored at key.
func (c *Cache) SMembers(ctx context.Context, key string) ([]string, error) {
	return redis.Strings(c.Do(ctx, "SMEMBERS", key))
}

// SIsMember determines if member belongs to the set stored at key.
func (c *Cache) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return redis.Bool(c.Do(ctx, "SISMEMBER", key, member))
}

// SInter returns the intersection of the given sets.
func (c *Cache) SInter(ctx context.Context, keys ...string) ([]string, error) {
	if err := requireArgs("SINTER", len(keys)); err != nil {
		return nil, err
	}

	return redis.Strings(c.Do(ctx, "SINTER", stringArgs(nil, keys)...))
}

// SRandMember returns a random member of the set stored at key without
// removing it.
func (c *Cache) SRandMember(ctx context.Context, key string) (string, bool, error) {
	return optionalString(c.Do(ctx, "SRANDMEMBER", key))
}

// SRandMemberN returns up to count distinct random members, or, for a
// negative count, exactly -count members that may repeat.
func (c *Cache) SRandMemberN(ctx context.Context, key string, count int) ([]string, error) {
	return redis.Strings(c.Do(ctx, "SRANDMEMBER", key, count))
}

// SRem removes members from the set stored at key and returns the number removed.
func (c *Cache) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if err := requireArgs("SREM", len(members)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "SREM", stringArgs([]interface{}{key}, members)...))
}

// SUnion returns the union of the given sets.
func (c *Cache) SUnion(ctx context.Context, keys ...string) ([]string, error) {
	if err := requireArgs("SUNION", len(keys)); err != nil {
		return nil, err
	}

	return redis.Strings(c.Do(ctx, "SUNION", stringArgs(nil, keys)...))
}

// SDiff returns the members of the first set that are in none of the others.
func (c *Cache) SDiff(ctx context.Context, keys ...string) ([]string, error) {
	if err := requireArgs("SDIFF", len(keys)); err != nil {
		return nil, err
	}

	return redis.Strings(c.Do(ctx, "SDIFF", stringArgs(nil, keys)...))
}
