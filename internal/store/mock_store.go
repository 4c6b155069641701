// ABOUTME: Mock Storage implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Storage implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	items  map[string]string
	closed bool

	// FailGet and FailSet, when non-nil, are returned by GetItem and SetItem.
	FailGet error
	FailSet error

	// SetCalls counts SetItem invocations, including failed ones.
	SetCalls int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		items: make(map[string]string),
	}
}

// GetItem returns a stored value.
func (m *MockStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores a value.
func (m *MockStore) SetItem(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	if m.closed {
		return ErrClosed
	}
	if m.FailSet != nil {
		return m.FailSet
	}
	m.items[key] = value
	return nil
}

// RemoveItem deletes a key.
func (m *MockStore) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Keys returns the stored keys sorted.
func (m *MockStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed. Later calls return ErrClosed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Storage = (*MockStore)(nil)
