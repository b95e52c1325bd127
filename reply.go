package redikit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

// The optional* helpers report a nil reply as a miss instead of an error.

func optionalString(reply interface{}, err error) (string, bool, error) {
	value, err := redis.String(reply, err)
	if err == redis.ErrNil {
		return "", false, nil
	}

	return value, err == nil, err
}

func optionalInt64(reply interface{}, err error) (int64, bool, error) {
	value, err := redis.Int64(reply, err)
	if err == redis.ErrNil {
		return 0, false, nil
	}

	return value, err == nil, err
}

func optionalFloat64(reply interface{}, err error) (float64, bool, error) {
	value, err := redis.Float64(reply, err)
	if err == redis.ErrNil {
		return 0, false, nil
	}

	return value, err == nil, err
}

// optionalStrings treats a nil multi-bulk reply (e.g. a blocking pop
// that timed out) as an empty result.
func optionalStrings(reply interface{}, err error) ([]string, error) {
	values, err := redis.Strings(reply, err)
	if err == redis.ErrNil {
		return nil, nil
	}

	return values, err
}

func statusReply(reply interface{}, err error) error {
	_, err = redis.String(reply, err)
	return err
}

func requireArgs(command string, n int) error {
	if n == 0 {
		return fmt.Errorf("%w: %s requires at least one argument", ErrInvalidArgument, command)
	}

	return nil
}

func isSelect(command string) bool {
	return strings.EqualFold(strings.TrimSpace(command), "SELECT")
}

// selectArg reads the database index of a raw SELECT.
func selectArg(args []interface{}) (int, error) {
	if len(args) == 1 {
		switch v := args[0].(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			if database, err := strconv.Atoi(v); err == nil {
				return database, nil
			}
		case []byte:
			if database, err := strconv.Atoi(string(v)); err == nil {
				return database, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: SELECT requires one integer database index", ErrInvalidArgument)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func milliseconds(d time.Duration) int64 {
	return int64(d / time.Millisecond)
}

func stringArgs(head []interface{}, values []string) []interface{} {
	args := make([]interface{}, 0, len(head)+len(values))
	args = append(args, head...)
	for _, value := range values {
		args = append(args, value)
	}

	return args
}
