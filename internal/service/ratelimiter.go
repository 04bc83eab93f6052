package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/model"
	redisclient "github.com/tailorly/tailor-server-go/internal/redis"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

// FailurePolicy decides what a limiter does when its backing store is
// unreachable. The action limiter fails open: rate limiting is a guard for
// the upstream provider, and availability wins over strict enforcement. The
// ledger has no such knob and always fails closed.
type FailurePolicy int

const (
	FailOpen FailurePolicy = iota
	FailClosed
)

// checkWindowsScript counts events in the trailing hour and day without
// recording anything. Recording happens separately, after the action
// succeeds, so denied and failed requests never consume quota.
var checkWindowsScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local hourWindow = tonumber(ARGV[2])
local dayWindow = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - dayWindow)

local dayCount = redis.call('ZCARD', key)
local hourStart = now - hourWindow
local hourCount = redis.call('ZCOUNT', key, hourStart, '+inf')

local oldestInHour = 0
local oldest = redis.call('ZRANGEBYSCORE', key, hourStart, '+inf', 'WITHSCORES', 'LIMIT', 0, 1)
if #oldest >= 2 then
    oldestInHour = tonumber(oldest[2])
end

return {hourCount, dayCount, oldestInHour}
`)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Window     string
	RetryAfter time.Duration
}

// ActionLimiter bounds how many actions an account can perform per category
// in trailing one-hour and 24-hour windows, backed by Redis sorted sets.
type ActionLimiter struct {
	client    *redis.Client
	policy    config.RateLimitPolicy
	onFailure FailurePolicy
}

func NewActionLimiter(client *redis.Client, policy config.RateLimitPolicy, onFailure FailurePolicy) *ActionLimiter {
	return &ActionLimiter{
		client:    client,
		policy:    policy,
		onFailure: onFailure,
	}
}

// Check evaluates both windows for the account and category. A hourly denial
// carries the time until the oldest event leaves the window; a daily denial
// carries no retry hint.
func (l *ActionLimiter) Check(ctx context.Context, accountID string, category model.ActionCategory) *Decision {
	limits, ok := l.policy.Limits(category)
	if !ok {
		return &Decision{Allowed: true}
	}

	now := time.Now()
	key := redisclient.UsageWindowKey(accountID, string(category))

	result, err := checkWindowsScript.Run(
		ctx,
		l.client,
		[]string{key},
		now.UnixMilli(),
		hourWindow.Milliseconds(),
		dayWindow.Milliseconds(),
	).Int64Slice()

	if err != nil || len(result) != 3 {
		if l.onFailure == FailClosed {
			log.Warn().Err(err).
				Str("accountId", accountID).
				Str("category", string(category)).
				Msg("rate limit check failed, denying request")
			return &Decision{Allowed: false, Limit: limits.PerHour, Window: "hour", RetryAfter: time.Minute}
		}
		log.Warn().Err(err).
			Str("accountId", accountID).
			Str("category", string(category)).
			Msg("rate limit check failed, allowing request")
		return &Decision{Allowed: true}
	}

	hourCount, dayCount, oldestInHour := int(result[0]), int(result[1]), result[2]

	if hourCount >= limits.PerHour {
		retryAfter := time.Duration(oldestInHour+hourWindow.Milliseconds()-now.UnixMilli()) * time.Millisecond
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return &Decision{
			Allowed:    false,
			Limit:      limits.PerHour,
			Window:     "hour",
			RetryAfter: retryAfter,
		}
	}

	if dayCount >= limits.PerDay {
		return &Decision{
			Allowed: false,
			Limit:   limits.PerDay,
			Window:  "day",
		}
	}

	return &Decision{Allowed: true}
}

// Record adds one event to the account's window. Called only after the action
// fully succeeded.
func (l *ActionLimiter) Record(ctx context.Context, accountID string, category model.ActionCategory) error {
	now := time.Now()
	key := redisclient.UsageWindowKey(accountID, string(category))
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.Expire(ctx, key, dayWindow+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

// WindowUsage reports current window counts for one category, for status
// endpoints.
type WindowUsage struct {
	HourUsed  int `json:"hourUsed"`
	HourLimit int `json:"hourLimit"`
	DayUsed   int `json:"dayUsed"`
	DayLimit  int `json:"dayLimit"`
}

// Status returns per-category window usage for an account. Errors degrade to
// zero counts; this is informational only.
func (l *ActionLimiter) Status(ctx context.Context, accountID string) map[model.ActionCategory]WindowUsage {
	now := time.Now()
	status := make(map[model.ActionCategory]WindowUsage)

	for _, category := range []model.ActionCategory{model.CategoryGeneration, model.CategoryRefinement, model.CategoryReply} {
		limits, ok := l.policy.Limits(category)
		if !ok {
			continue
		}
		usage := WindowUsage{HourLimit: limits.PerHour, DayLimit: limits.PerDay}

		key := redisclient.UsageWindowKey(accountID, string(category))
		hourStart := fmt.Sprintf("%d", now.Add(-hourWindow).UnixMilli())
		dayStart := fmt.Sprintf("%d", now.Add(-dayWindow).UnixMilli())

		if count, err := l.client.ZCount(ctx, key, hourStart, "+inf").Result(); err == nil {
			usage.HourUsed = int(count)
		}
		if count, err := l.client.ZCount(ctx, key, dayStart, "+inf").Result(); err == nil {
			usage.DayUsed = int(count)
		}
		status[category] = usage
	}

	return status
}
