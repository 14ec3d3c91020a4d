package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultLocalTimeout bounds a single LocalStorage operation.
const DefaultLocalTimeout = 3 * time.Second

// LocalStorage is a string key-value view of a KVEngine, the shape the
// session store persists through. Calls are synchronous and bounded by a
// short timeout.
type LocalStorage struct {
	kv      KVEngine
	timeout time.Duration
}

// NewLocalStorage wraps kv.
func NewLocalStorage(kv KVEngine) *LocalStorage {
	return &LocalStorage{kv: kv, timeout: DefaultLocalTimeout}
}

// GetItem returns the value stored under key; ok is false if there is none.
func (s *LocalStorage) GetItem(key string) (value string, ok bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.kv.Get(ctx, []byte(key))
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *LocalStorage) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.kv.Set(ctx, []byte(key), []byte(value))
}

// RemoveItem deletes key. Removing a missing key succeeds.
func (s *LocalStorage) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.kv.Delete(ctx, []byte(key))
}
