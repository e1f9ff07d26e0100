package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the sorted-set log to the window, then records
// the admission when under limit. Runs atomically inside Redis.
//
// KEYS[1] log key; ARGV: now ms, window ms, limit, member.
// Returns {admitted, remaining, reset ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
local admitted = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, window)
  count = count + 1
  admitted = 1
end

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end

local remaining = limit - count
if remaining < 0 then remaining = 0 end
return {admitted, remaining, reset}
`)

type RedisStore struct {
	client redis.Scripter
	prefix string
}

func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:chat"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Admit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	nowMs := now.UnixMilli()
	vals, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + ":" + key},
		nowMs, window.Milliseconds(), limit, strconv.FormatInt(nowMs, 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("sliding window script failed: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("unexpected sliding window reply: %v", vals)
	}

	return Result{
		Success:   vals[0] == 1,
		Limit:     limit,
		Remaining: int(vals[1]),
		ResetAt:   time.UnixMilli(vals[2]),
	}, nil
}
