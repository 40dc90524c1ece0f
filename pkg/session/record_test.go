package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swanix/labgate/pkg/common"
)

type mapStorage struct {
	values map[string]string
}

func newMapStorage() *mapStorage {
	return &mapStorage{values: make(map[string]string)}
}

func (storage *mapStorage) Get(key string) (string, bool) {
	value, found := storage.values[key]
	return value, found
}

func (storage *mapStorage) Set(key string, value string) error {
	storage.values[key] = value
	return nil
}

func (storage *mapStorage) Remove(key string) {
	delete(storage.values, key)
}

func testSession() *common.Session {
	return &common.Session{
		User: common.UserInfo{
			Identifier: "auth0|user-1",
			Email:      "user@gmail.com",
			Name:       "Some User",
			Picture:    "https://example.com/avatar.jpg",
		},
		AccessToken: "access-token-1",
		ExpiresAt:   1700000000000,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(newMapStorage())

	err := store.Save(testSession(), "abc", 1700000000000)
	assert.NoError(t, err)

	record, found := store.Load()
	assert.True(t, found)
	assert.Equal(t, "abc", record.Token)
	assert.Equal(t, int64(1700000000000), record.ExpiresAt)

	parsed, err := record.Session()
	assert.NoError(t, err)
	assert.Equal(t, testSession(), parsed)
}

func TestLoadAbsentWhenAnyFieldMissing(t *testing.T) {
	for _, missingKey := range []string{DataKey, TokenKey, ExpiresKey} {
		storage := newMapStorage()
		store := NewStore(storage)
		err := store.Save(testSession(), "abc", 1700000000000)
		assert.NoError(t, err)

		storage.Remove(missingKey)

		_, found := store.Load()
		assert.False(t, found, "record should be absent without %v", missingKey)
	}
}

func TestLoadAbsentWhenExpiryNotNumeric(t *testing.T) {
	storage := newMapStorage()
	store := NewStore(storage)
	_ = store.Save(testSession(), "abc", 1700000000000)
	_ = storage.Set(ExpiresKey, "not-a-number")

	_, found := store.Load()
	assert.False(t, found)
}

func TestClearRemovesWholeRecord(t *testing.T) {
	store := NewStore(newMapStorage())
	_ = store.Save(testSession(), "abc", 1700000000000)

	store.Clear()

	_, found := store.Load()
	assert.False(t, found)
}

func TestClearIsIdempotent(t *testing.T) {
	store := NewStore(newMapStorage())
	_ = store.Save(testSession(), "abc", 1700000000000)

	store.Clear()
	store.Clear()

	_, found := store.Load()
	assert.False(t, found)
}
