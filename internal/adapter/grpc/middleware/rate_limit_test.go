package middleware

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const healthCheck = "/grpc.health.v1.Health/Check"

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// newFrozenLimiter returns a limiter whose clock only moves when advanced.
func newFrozenLimiter(t *testing.T, client *redis.Client, cfg RateLimiterConfig) (*RateLimiter, func(time.Duration)) {
	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }
	return rl, func(d time.Duration) { current = current.Add(d) }
}

func peerContext(addr string) context.Context {
	tcpAddr, _ := net.ResolveTCPAddr("tcp", addr)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcpAddr})
}

// mockHandler is a simple handler that returns "success"
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: healthCheck}
	ctx := peerContext("127.0.0.1:12345")

	for range 5 {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: healthCheck}
	ctx := peerContext("127.0.0.1:12345")

	for range 5 {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}

	resp, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Equal(t, "rate limit exceeded: 5.00 requests/second (burst capacity: 5)", st.Message())
	assert.Equal(t, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true}, rl.Config())
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, advance := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "k"))
	assert.True(t, rl.Allow(ctx, "k"))
	assert.False(t, rl.Allow(ctx, "k"))

	advance(500 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "k"), "one token refilled after half a second at 2 rps")
	assert.False(t, rl.Allow(ctx, "k"))

	advance(10 * time.Second)
	assert.True(t, rl.Allow(ctx, "k"))
	assert.True(t, rl.Allow(ctx, "k"))
	assert.False(t, rl.Allow(ctx, "k"), "refill is capped at burst capacity")
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: healthCheck}
	ctx := peerContext("127.0.0.1:12345")

	for range 10 {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_NilAllowsAll(t *testing.T) {
	var rl *RateLimiter
	assert.True(t, rl.Allow(context.Background(), "k"))
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: healthCheck}

	ctx1 := peerContext("192.168.1.1:12345")
	for range 2 {
		_, err := interceptor(ctx1, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx1, nil, info, mockHandler)
	require.Error(t, err)

	resp, err := interceptor(peerContext("192.168.1.2:12345"), nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: healthCheck}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", "203.0.113.1"))
	_, err := interceptor(ctx, nil, info, mockHandler)
	require.NoError(t, err)

	assert.True(t, mr.Exists(KeyPrefix+healthCheck+":203.0.113.1"))
}

func TestRateLimiter_BucketTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 4, Enabled: true})

	require.True(t, rl.Allow(context.Background(), "ttl-key"))

	ttl := mr.TTL(KeyPrefix + "ttl-key")
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 60.0)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newFrozenLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	mr.Close()

	for range 3 {
		assert.True(t, rl.Allow(context.Background(), "k"))
	}
}

func TestRateLimiter_InProcessBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2, Enabled: true}, zaptest.NewLogger(t))
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "a"))
	assert.True(t, rl.Allow(ctx, "a"))
	assert.False(t, rl.Allow(ctx, "a"), "burst exhausted")
	assert.True(t, rl.Allow(ctx, "b"), "keys have separate buckets")

	current = current.Add(time.Second)
	assert.True(t, rl.Allow(ctx, "a"), "one token refilled")
	assert.False(t, rl.Allow(ctx, "a"))
}

func TestLocalBuckets_SweepsIdleBuckets(t *testing.T) {
	lb := newLocalBuckets(1, 1)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := range maxLocalBuckets {
		lb.allow(fmt.Sprintf("idle-%d", i), start)
	}
	require.Equal(t, maxLocalBuckets, lb.len())

	lb.allow("fresh", start.Add(2*bucketTTLSeconds*time.Second))
	assert.Equal(t, 1, lb.len())
}
