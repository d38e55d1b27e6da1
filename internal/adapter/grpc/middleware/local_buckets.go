package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLocalBuckets is the size at which idle buckets are swept.
const maxLocalBuckets = 10000

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localBuckets is the in-process token bucket store used when no Redis
// client is configured. Limits are per instance.
type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   rate.Limit
	burst   int
}

func newLocalBuckets(rps float64, burst int) *localBuckets {
	return &localBuckets{
		buckets: make(map[string]*localBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (lb *localBuckets) allow(key string, now time.Time) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	b, ok := lb.buckets[key]
	if !ok {
		if len(lb.buckets) >= maxLocalBuckets {
			lb.sweep(now)
		}
		b = &localBucket{limiter: rate.NewLimiter(lb.limit, lb.burst)}
		lb.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for longer than bucketTTLSeconds. Caller holds mu.
func (lb *localBuckets) sweep(now time.Time) {
	for key, b := range lb.buckets {
		if now.Sub(b.lastSeen) > bucketTTLSeconds*time.Second {
			delete(lb.buckets, key)
		}
	}
}

func (lb *localBuckets) len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.buckets)
}
