// ABOUTME: Persisted state store backed by on-device key-value storage
// ABOUTME: Provides raw Read/Write plus the initialized Get/Update/Subscribe API

package persisted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/skystate/internal/store"
)

// DefaultStorageKey is the key the persisted state is stored under
const DefaultStorageKey = "BSKY_STORAGE"

// Errors
var (
	ErrNotInitialized = errors.New("persisted state not initialized")
	ErrCorrupt        = errors.New("persisted state is corrupt")
)

// Store is the persisted state store.
type Store struct {
	storage  store.Storage
	key      string
	defaults Schema
	logger   *slog.Logger

	mu          sync.RWMutex
	state       Schema
	initialized bool

	updates *broadcaster
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithDefaults sets the state written by Init when nothing is stored.
func WithDefaults(defaults Schema) Option {
	return func(s *Store) {
		s.defaults = defaults.Clone()
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over the given storage. Call Init before Get or Update.
func NewStore(storage store.Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		key:      DefaultStorageKey,
		defaults: Defaults(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "persisted")
	s.updates = newBroadcaster(s.logger)
	return s
}

// Key returns the storage key the state lives under.
func (s *Store) Key() string {
	return s.key
}

// Read returns the stored state, or nil if nothing is stored. An empty value,
// JSON null and an empty object all count as nothing stored. Fields missing
// from the stored state are taken from the store's defaults. A value that
// does not decode returns an error wrapping ErrCorrupt.
func (s *Store) Read(ctx context.Context) (*Schema, error) {
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading persisted state: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	var state Schema
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	state.fillFrom(s.defaults)
	return &state, nil
}

// Write stores state, replacing anything stored. It does not touch the
// in-memory state of an initialized store; use Update for that.
func (s *Store) Write(ctx context.Context, state Schema) error {
	state = state.Clone()
	state.normalize()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding persisted state: %w", err)
	}
	if err := s.storage.SetItem(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("writing persisted state: %w", err)
	}
	return nil
}

// Init loads the stored state into memory. When nothing is stored, or the
// stored value is corrupt, the defaults are written and used instead.
// Storage failures are returned.
func (s *Store) Init(ctx context.Context) error {
	s.logger.Debug("persisted state: initializing")

	stored, err := s.Read(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if err != nil {
		s.logger.Error("persisted state: failed to decode stored state", "error", err.Error())
	}

	state := s.defaults.Clone()
	if stored != nil {
		state = *stored
	} else if err := s.Write(ctx, state); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.initialized = true
	s.mu.Unlock()

	s.logger.Debug("persisted state: initialized", "seeded", stored == nil)
	return nil
}

// Initialized reports whether Init has completed.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Get returns a copy of the current state. Before Init it returns the defaults.
func (s *Store) Get() Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return s.defaults.Clone()
	}
	return s.state.Clone()
}

// Update applies fn to a copy of the current state, persists the result and
// publishes it to subscribers. If persisting fails the in-memory state is
// left unchanged.
func (s *Store) Update(ctx context.Context, fn func(*Schema)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	next := s.state.Clone()
	fn(&next)
	next.normalize()

	if err := s.Write(ctx, next); err != nil {
		return err
	}
	s.state = next
	s.updates.publish(next)
	return nil
}

// Subscribe returns a channel receiving every state committed by Update, and
// a subscription ID for Unsubscribe. The subscription ends when ctx is done.
func (s *Store) Subscribe(ctx context.Context) (<-chan Schema, string) {
	return s.updates.subscribe(ctx)
}

// Unsubscribe ends a subscription and closes its channel.
func (s *Store) Unsubscribe(subID string) {
	s.updates.unsubscribe(subID)
}

// Close closes all subscriber channels. It does not close the storage.
func (s *Store) Close() {
	s.updates.close()
}
