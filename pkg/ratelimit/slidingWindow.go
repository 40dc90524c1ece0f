package ratelimit

import (
	"sync"
	"time"
)

type Limiter interface {
	CheckAndRecord(key string) bool
}

type BucketPort interface {
	GetBucket(key string) ([]int64, bool)
	PutBucket(key string, timestamps []int64)
}

// slidingWindowLimiter bounds request volume per key within a sliding
// time window. State is per-instance only; under horizontal scaling it
// is a best-effort approximation, not a global guarantee.
type slidingWindowLimiter struct {
	mutex   sync.Mutex
	buckets BucketPort
	window  time.Duration
	max     int
	now     func() time.Time
}

func NewSlidingWindowLimiter(buckets BucketPort, window time.Duration, max int) *slidingWindowLimiter {
	if buckets == nil {
		panic("BucketPort is required to create sliding window limiter")
	}
	return &slidingWindowLimiter{
		buckets: buckets,
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

// CheckAndRecord prunes timestamps older than the window, then admits
// the request only while the pruned count is below the maximum. The
// stored slice is shared with the bucket store, so the pruned copy is
// built fresh and the whole read-modify-write holds the mutex.
func (limiter *slidingWindowLimiter) CheckAndRecord(key string) bool {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	now := limiter.now().UnixNano()
	windowStart := now - limiter.window.Nanoseconds()

	timestamps, _ := limiter.buckets.GetBucket(key)
	valid := make([]int64, 0, len(timestamps)+1)
	for _, timestamp := range timestamps {
		if timestamp > windowStart {
			valid = append(valid, timestamp)
		}
	}

	if len(valid) >= limiter.max {
		limiter.buckets.PutBucket(key, valid)
		return false
	}

	valid = append(valid, now)
	limiter.buckets.PutBucket(key, valid)
	return true
}
