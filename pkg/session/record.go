package session

import (
	"encoding/json"
	"strconv"

	"github.com/swanix/labgate/pkg/common"
)

// Well-known storage keys. The three fields form one atomic record:
// if any key is missing the whole record is treated as absent.
const (
	DataKey    = "session_data"
	TokenKey   = "session_token"
	ExpiresKey = "session_expires"
)

type StoragePort interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Remove(key string)
}

type Record struct {
	Data      string
	Token     string
	ExpiresAt int64 // epoch millis
}

func (record *Record) Session() (*common.Session, error) {
	var session common.Session
	if err := json.Unmarshal([]byte(record.Data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type Store struct {
	storage StoragePort
}

func NewStore(storage StoragePort) *Store {
	if storage == nil {
		panic("StoragePort is required to create session Store")
	}
	return &Store{storage: storage}
}

func (store *Store) Save(session *common.Session, token string, expiresAt int64) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := store.storage.Set(DataKey, string(data)); err != nil {
		return err
	}
	if err := store.storage.Set(TokenKey, token); err != nil {
		return err
	}
	return store.storage.Set(ExpiresKey, strconv.FormatInt(expiresAt, 10))
}

// Load returns the stored record, or absent when any of the three
// fields is missing or the expiry is not a number.
func (store *Store) Load() (Record, bool) {
	data, dataFound := store.storage.Get(DataKey)
	token, tokenFound := store.storage.Get(TokenKey)
	expires, expiresFound := store.storage.Get(ExpiresKey)
	if !dataFound || !tokenFound || !expiresFound {
		return Record{}, false
	}
	expiresAt, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return Record{}, false
	}
	return Record{
		Data:      data,
		Token:     token,
		ExpiresAt: expiresAt,
	}, true
}

func (store *Store) Clear() {
	store.storage.Remove(DataKey)
	store.storage.Remove(TokenKey)
	store.storage.Remove(ExpiresKey)
}
