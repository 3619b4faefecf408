package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mvirta/postura-platform/pkg/redis"
)

// fakeRedis is an in-memory redis.Client for exercising the watermark
// and sample store without a server.
type fakeRedis struct {
	strings map[string]string
	hashes  map[string]map[string]string
	zsets   map[string][]redis.ZMember
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string][]redis.ZMember),
	}
}

func memberString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.strings[key] = memberString(value)
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.strings[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, redis.ErrNotFound)
	}
	return v, nil
}

func (f *fakeRedis) HSet(ctx context.Context, key string, field string, value interface{}) error {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = memberString(value)
	return nil
}

func (f *fakeRedis) HGet(ctx context.Context, key string, field string) (string, error) {
	v, ok := f.hashes[key][field]
	if !ok {
		return "", fmt.Errorf("hash field %s:%s: %w", key, field, redis.ErrNotFound)
	}
	return v, nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRedis) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	f.zsets[key] = append(f.zsets[key], redis.ZMember{Score: score, Member: memberString(member)})
	return nil
}

func (f *fakeRedis) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	var out []redis.ZMember
	for _, m := range f.zsets[key] {
		if m.Score >= min && m.Score <= max {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

func parseScoreBound(s string) float64 {
	switch s {
	case "-inf":
		return math.Inf(-1)
	case "+inf":
		return math.Inf(1)
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func (f *fakeRedis) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	lo, hi := parseScoreBound(min), parseScoreBound(max)
	var kept []redis.ZMember
	for _, m := range f.zsets[key] {
		if m.Score >= lo && m.Score <= hi {
			continue
		}
		kept = append(kept, m)
	}
	f.zsets[key] = kept
	return nil
}

func (f *fakeRedis) ZCard(ctx context.Context, key string) (int64, error) {
	return int64(len(f.zsets[key])), nil
}

func (f *fakeRedis) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range f.strings {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range f.zsets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error {
	return nil
}

func (f *fakeRedis) Close() error {
	return nil
}
