package redikit

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

type (
	// ScanOptions restricts a SCAN-family iteration. Zero values leave
	// the server defaults in place.
	ScanOptions struct {
		Match string
		Count int
	}

	// ScanResult is one page of a SCAN or SSCAN iteration. A zero cursor
	// means the iteration is complete.
	ScanResult struct {
		Cursor uint64
		Items  []string
	}

	// HashScanResult is one page of an HSCAN iteration.
	HashScanResult struct {
		Cursor  uint64
		Entries map[string]string
	}

	// ZScanResult is one page of a ZSCAN iteration, in reply order.
	ZScanResult struct {
		Cursor  uint64
		Members []ScoredMember
	}

	// ScoredMember is a sorted set member with its score.
	ScoredMember struct {
		Member string
		Score  float64
	}
)

// Scan iterates the keyspace of the current database.
func (c *Cache) Scan(ctx context.Context, cursor uint64, opts ScanOptions) (ScanResult, error) {
	next, items, err := scanReply(c.Do(ctx, "SCAN", opts.args(cursor)...))
	return ScanResult{Cursor: next, Items: items}, err
}

// SScan iterates the members of the set stored at key.
func (c *Cache) SScan(ctx context.Context, key string, cursor uint64, opts ScanOptions) (ScanResult, error) {
	next, items, err := scanReply(c.Do(ctx, "SSCAN", append([]interface{}{key}, opts.args(cursor)...)...))
	return ScanResult{Cursor: next, Items: items}, err
}

// HScan iterates the fields of the hash stored at key.
func (c *Cache) HScan(ctx context.Context, key string, cursor uint64, opts ScanOptions) (HashScanResult, error) {
	next, items, err := scanReply(c.Do(ctx, "HSCAN", append([]interface{}{key}, opts.args(cursor)...)...))
	if err != nil {
		return HashScanResult{}, err
	}

	if len(items)%2 != 0 {
		return HashScanResult{}, fmt.Errorf("unexpected HSCAN reply with %d items", len(items))
	}

	entries := make(map[string]string, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		entries[items[i]] = items[i+1]
	}

	return HashScanResult{Cursor: next, Entries: entries}, nil
}

// ZScan iterates the members of the sorted set stored at key.
func (c *Cache) ZScan(ctx context.Context, key string, cursor uint64, opts ScanOptions) (ZScanResult, error) {
	next, items, err := scanReply(c.Do(ctx, "ZSCAN", append([]interface{}{key}, opts.args(cursor)...)...))
	if err != nil {
		return ZScanResult{}, err
	}

	if len(items)%2 != 0 {
		return ZScanResult{}, fmt.Errorf("unexpected ZSCAN reply with %d items", len(items))
	}

	members := make([]ScoredMember, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		score, err := redis.Float64(items[i+1], nil)
		if err != nil {
			return ZScanResult{}, err
		}

		members = append(members, ScoredMember{Member: items[i], Score: score})
	}

	return ZScanResult{Cursor: next, Members: members}, nil
}

// Clean deletes every key matching pattern by walking the keyspace
// with SCAN and deleting each page. The walk runs in one batch. count
// is the SCAN page size hint (zero for the server default). A blank
// pattern or "*" would empty the whole database and is rejected.
func (c *Cache) Clean(ctx context.Context, pattern string, count int) (int64, error) {
	if pattern == "" || pattern == "*" {
		return 0, fmt.Errorf("%w: refusing to clean pattern %q", ErrInvalidArgument, pattern)
	}

	var deleted int64
	err := c.Batch(ctx, func(ctx context.Context) error {
		opts := ScanOptions{Match: pattern, Count: count}

		for cursor := uint64(0); ; {
			if err := ctx.Err(); err != nil {
				return err
			}

			page, err := c.Scan(ctx, cursor, opts)
			if err != nil {
				return err
			}

			if len(page.Items) > 0 {
				n, err := c.Del(ctx, page.Items...)
				if err != nil {
					return err
				}

				deleted += n
			}

			if page.Cursor == 0 {
				return nil
			}

			cursor = page.Cursor
		}
	})

	return deleted, err
}

func (o ScanOptions) args(cursor uint64) []interface{} {
	args := []interface{}{cursor}
	if o.Match != "" {
		args = append(args, "MATCH", o.Match)
	}

	if o.Count > 0 {
		args = append(args, "COUNT", o.Count)
	}

	return args
}

func scanReply(reply interface{}, err error) (uint64, []string, error) {
	values, err := redis.Values(reply, err)
	if err != nil {
		return 0, nil, err
	}

	if len(values) != 2 {
		return 0, nil, fmt.Errorf("unexpected scan reply with %d elements", len(values))
	}

	cursor, err := redis.Uint64(values[0], nil)
	if err != nil {
		return 0, nil, err
	}

	items, err := redis.Strings(values[1], nil)
	if err != nil {
		return 0, nil, err
	}

	return cursor, items, nil
}
