package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// goCacheAdapter backs two ports with one in-process cache: the session
// record storage used by the client SDK and the rate-limit buckets used
// by the verification endpoint. Idle entries are evicted by the
// cache's own janitor.
type goCacheAdapter struct {
	store *cache.Cache
}

func NewGoCacheAdapter(expirationTimeHours int, evictScheduleTimeHours int) *goCacheAdapter {
	store := cache.New(
		time.Hour*time.Duration(expirationTimeHours),
		time.Hour*time.Duration(evictScheduleTimeHours),
	)
	return &goCacheAdapter{
		store: store,
	}
}

// session.StoragePort implementation

func (adapter *goCacheAdapter) Get(key string) (string, bool) {
	value, found := adapter.store.Get(key)
	if found {
		return value.(string), true
	} else {
		return "", false
	}
}

func (adapter *goCacheAdapter) Set(key string, value string) error {
	adapter.store.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (adapter *goCacheAdapter) Remove(key string) {
	adapter.store.Delete(key)
}

// ratelimit.BucketPort implementation

func (adapter *goCacheAdapter) GetBucket(key string) ([]int64, bool) {
	value, found := adapter.store.Get("bucket:" + key)
	if found {
		return value.([]int64), true
	} else {
		return nil, false
	}
}

func (adapter *goCacheAdapter) PutBucket(key string, timestamps []int64) {
	adapter.store.Set("bucket:"+key, timestamps, cache.DefaultExpiration)
}
