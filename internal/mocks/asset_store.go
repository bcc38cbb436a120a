package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/videosnap/internal/store"
)

// MockAssetStore implements store.AssetStore in memory. Generated names are
// sequential ("asset-1", "asset-2", ...).
type MockAssetStore struct {
	PutFn func(ctx context.Context, data []byte) (string, error)
	GetFn func(ctx context.Context, name string) ([]byte, error)

	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

var _ store.AssetStore = (*MockAssetStore)(nil)

// NewMockAssetStore creates an empty asset store.
func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{blobs: make(map[string][]byte)}
}

// Put implements store.AssetStore
func (m *MockAssetStore) Put(ctx context.Context, data []byte) (string, error) {
	if m.PutFn != nil {
		return m.PutFn(ctx, data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.seq++
	name := fmt.Sprintf("asset-%d", m.seq)
	m.blobs[name] = append([]byte(nil), data...)
	return name, nil
}

// Get implements store.AssetStore
func (m *MockAssetStore) Get(ctx context.Context, name string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, store.ErrAssetNotFound
	}
	return append([]byte(nil), data...), nil
}

// Len returns the number of stored blobs.
func (m *MockAssetStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
