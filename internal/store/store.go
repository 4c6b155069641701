// ABOUTME: Storage interface for on-device key-value persistence
// ABOUTME: Shared by the SQLite implementation and the in-memory mock

package store

import (
	"context"
	"errors"
)

// ErrClosed is returned when an operation is attempted on a closed store
var ErrClosed = errors.New("store closed")

// Storage is a string-keyed store of string values.
type Storage interface {
	// GetItem returns the value for key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Keys returns all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store
	Close() error
}
