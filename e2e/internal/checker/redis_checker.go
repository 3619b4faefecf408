package checker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mvirta/postura-platform/e2e/internal/scenario"
)

// CheckRedisExpectation validates a Redis state expectation. With MinCount
// set it checks sorted-set cardinality; with RedisField set it compares a
// hash field; otherwise it compares a plain string key.
func CheckRedisExpectation(ctx context.Context, client *redis.Client, exp scenario.Expectation) (bool, string, interface{}) {
	if exp.RedisKey == "" {
		return false, "redis_key is empty", nil
	}

	if exp.MinCount > 0 {
		count, err := client.ZCard(ctx, exp.RedisKey).Result()
		if err != nil {
			return false, fmt.Sprintf("Redis error: %v", err), nil
		}

		if count < int64(exp.MinCount) {
			return false, fmt.Sprintf("key %q has %d members, expected >= %d", exp.RedisKey, count, exp.MinCount), count
		}

		return true, "", count
	}

	// Get the value from Redis
	var value string
	var err error
	if exp.RedisField != "" {
		value, err = client.HGet(ctx, exp.RedisKey, exp.RedisField).Result()
	} else {
		value, err = client.Get(ctx, exp.RedisKey).Result()
	}
	if err == redis.Nil {
		return false, fmt.Sprintf("key %q field %q not found in Redis", exp.RedisKey, exp.RedisField), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	// Match against expected value
	matches, reason := MatchesExpectation(value, exp.Expected)
	if !matches {
		return false, reason, value
	}

	return true, "", value
}
