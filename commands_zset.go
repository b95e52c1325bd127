package redikit

import (
	"context"
	"fmt"
	"sort"

	"github.com/gomodule/redigo/redis"
)

// ZAdd adds member with the given score to the sorted set stored at
// key, or updates its score. It returns the number of new members.
func (c *Cache) ZAdd(ctx context.Context, key string, score float64, member string) (int64, error) {
	return redis.Int64(c.Do(ctx, "ZADD", key, score, member))
}

// ZAddMulti adds or updates several members at once.
func (c *Cache) ZAddMulti(ctx context.Context, key string, scoreMembers map[string]float64) (int64, error) {
	if len(scoreMembers) == 0 {
		return 0, fmt.Errorf("%w: ZADD requires at least one member", ErrInvalidArgument)
	}

	members := make([]string, 0, len(scoreMembers))
	for member := range scoreMembers {
		members = append(members, member)
	}

	sort.Strings(members)

	args := make([]interface{}, 0, 1+len(members)*2)
	args = append(args, key)
	for _, member := range members {
		args = append(args, scoreMembers[member], member)
	}

	return redis.Int64(c.Do(ctx, "ZADD", args...))
}

// ZCard returns the number of members of the sorted set stored at key.
func (c *Cache) ZCard(ctx context.Context, key string) (int64, error) {
	return redis.Int64(c.Do(ctx, "ZCARD", key))
}

// ZCount returns the number of members with a score between min and
// max (inclusive).
func (c *Cache) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	return redis.Int64(c.Do(ctx, "ZCOUNT", key, min, max))
}

// ZIncrBy increments the score of member by delta and returns the new score.
func (c *Cache) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	return redis.Float64(c.Do(ctx, "ZINCRBY", key, delta, member))
}

// ZRange returns the members ranked start through stop, lowest score
// first.
func (c *Cache) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return redis.Strings(c.Do(ctx, "ZRANGE", key, start, stop))
}

// ZRevRange returns the members ranked start through stop, highest
// score first.
func (c *Cache) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return redis.Strings(c.Do(ctx, "ZREVRANGE", key, start, stop))
}

// ZRangeByScore returns the members with a score between min and max (inclusive), lowest first.
func (c *Cache) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	return redis.Strings(c.Do(ctx, "ZRANGEBYSCORE", key, min, max))
}

// ZRank returns the rank of member, lowest score first. The boolean is
// false if the member does not exist.
func (c *Cache) ZRank(ctx context.Context, key, member string) (int64, bool, error) {
	return optionalInt64(c.Do(ctx, "ZRANK", key, member))
}

// ZRevRank is like ZRank with scores ordered from high to low.
func (c *Cache) ZRevRank(ctx context.Context, key, member string) (int64, bool, error) {
	return optionalInt64(c.Do(ctx, "ZREVRANK", key, member))
}

// ZRem removes members from the sorted set stored at key and returns the number removed.
func (c *Cache) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	if err := requireArgs("ZREM", len(members)); err != nil {
		return 0, err
	}

	return redis.Int64(c.Do(ctx, "ZREM", stringArgs([]interface{}{key}, members)...))
}

// ZScore returns the score of member. The boolean is false if the member does not exist.
func (c *Cache) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	return optionalFloat64(c.Do(ctx, "ZSCORE", key, member))
}
