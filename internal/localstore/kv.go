// Package localstore is the device-side cache of the rate catalog, the
// user's settings and the subscription record.
//
// Every document lives under one key of a KV backend and is rewritten
// wholesale on each mutation. There is no version stamp: when two writers
// load, mutate and save the same document concurrently, the last save wins
// and the other change is lost. The store assumes one device and one writer.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	KeyCategories   = "@scrap_categories"
	KeySettings     = "@scrap_settings"
	KeySubscription = "@subscription_data"
)

// ErrStorage marks failures of the KV backend or of a stored document.
var ErrStorage = errors.New("storage_error")

// KV is the persistence contract the stores are built on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, key, err)
}

// MemoryKV keeps documents in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	m.data[key] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
