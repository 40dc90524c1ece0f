package cache

import (
	"testing"
)

func TestSetGet(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	err := adapter.Set("session_token", "abc")
	if err != nil {
		t.Errorf("Saving value error: %v", err)
	}

	value, found := adapter.Get("session_token")
	if !found {
		t.Fatalf("Value not found")
	}
	if value != "abc" {
		t.Fatalf("Cached value not equal saved")
	}
}

func TestGetNotFound(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	_, found := adapter.Get("session_token")
	if found {
		t.Errorf("Expect not found")
	}
}

func TestSetOverwrites(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	_ = adapter.Set("session_token", "abc")
	_ = adapter.Set("session_token", "def")

	value, _ := adapter.Get("session_token")
	if value != "def" {
		t.Errorf("Expect overwritten value, got: %v", value)
	}
}

func TestRemove(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	_ = adapter.Set("session_token", "abc")
	adapter.Remove("session_token")

	_, found := adapter.Get("session_token")
	if found {
		t.Errorf("Expect not found")
	}
}

func TestBuckets(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	adapter.PutBucket("10.0.0.1", []int64{1, 2, 3})

	timestamps, found := adapter.GetBucket("10.0.0.1")
	if !found {
		t.Fatalf("Bucket not found")
	}
	if len(timestamps) != 3 {
		t.Fatalf("Expect 3 timestamps, got: %v", len(timestamps))
	}
}

func TestBucketsDoNotCollideWithValues(t *testing.T) {
	adapter := NewGoCacheAdapter(1, 1)

	_ = adapter.Set("10.0.0.1", "abc")
	adapter.PutBucket("10.0.0.1", []int64{1})

	value, found := adapter.Get("10.0.0.1")
	if !found || value != "abc" {
		t.Errorf("Bucket write should not clobber plain value")
	}
}
