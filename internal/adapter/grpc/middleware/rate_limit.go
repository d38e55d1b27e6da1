package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"user-management-api/pkg/logger"
)

// KeyPrefix namespaces token buckets in Redis.
const KeyPrefix = "ratelimit:tb:"

// bucketTTLSeconds is how long an idle bucket is kept.
const bucketTTLSeconds = 60

// tokenBucket refills at ARGV[1] tokens per second up to ARGV[2] and takes
// one token per call. Returns 1 when the call is allowed.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// RateLimiter is a token bucket limiter shared by the HTTP and gRPC servers.
// Buckets live in Redis when a client is given and in process memory
// otherwise. Redis errors fail open.
type RateLimiter struct {
	client redis.Scripter
	local  *localBuckets
	config RateLimiterConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil client keeps the buckets
// in process memory.
func NewRateLimiter(client redis.Scripter, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		client: client,
		config: config,
		log:    log.Named("ratelimit"),
		now:    time.Now,
	}
	if client == nil {
		rl.local = newLocalBuckets(config.RequestsPerSecond, config.BurstCapacity)
	}
	return rl
}

// Config returns the limiter settings.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Allow takes one token from the bucket identified by key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl == nil || !rl.config.Enabled {
		return true
	}

	if !rl.take(ctx, key) {
		logger.WithContext(ctx, rl.log).Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Float64("limit", rl.config.RequestsPerSecond),
			zap.Int("burst", rl.config.BurstCapacity),
		)
		return false
	}
	return true
}

// take reports whether a token was available. Redis errors allow the request.
func (rl *RateLimiter) take(ctx context.Context, key string) bool {
	if rl.local != nil {
		return rl.local.allow(key, rl.now())
	}

	now := float64(rl.now().UnixMicro()) / 1e6
	allowed, err := tokenBucket.Run(ctx, rl.client, []string{KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		now,
		bucketTTLSeconds,
	).Int64()
	if err != nil {
		logger.WithContext(ctx, rl.log).Warn("rate limiter redis error, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return allowed == 1
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		key := fmt.Sprintf("%s:%s", info.FullMethod, clientIP(ctx))
		if !rl.Allow(ctx, key) {
			cfg := rl.Config()
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded: %.2f requests/second (burst capacity: %d)",
				cfg.RequestsPerSecond, cfg.BurstCapacity)
		}
		return handler(ctx, req)
	}
}

// clientIP extracts the client IP address from the gRPC context.
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if xff := md.Get("x-forwarded-for"); len(xff) > 0 {
			return xff[0]
		}
		if xri := md.Get("x-real-ip"); len(xri) > 0 {
			return xri[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok {
		return p.Addr.String()
	}

	return "unknown"
}
