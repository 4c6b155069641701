// ABOUTME: One-shot migration of the legacy state blob into the persisted store
// ABOUTME: Idempotent via the target-populated check; failures are logged, never returned

package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/skystate/internal/persisted"
	"github.com/2389/skystate/internal/store"
)

// DeprecatedRootStateKey is the storage key the retired client wrote its state under
const DeprecatedRootStateKey = "root"

// errNullBlob is returned when the legacy blob decodes to JSON null
var errNullBlob = errors.New("legacy state is null")

// Target is the persisted store the migrator writes into.
type Target interface {
	Read(ctx context.Context) (*persisted.Schema, error)
	Write(ctx context.Context, state persisted.Schema) error
}

// Result describes what a Migrate call did.
type Result string

// Result values
const (
	ResultMigrated        Result = "migrated"
	ResultAlreadyMigrated Result = "already_migrated"
	ResultNoLegacyData    Result = "no_legacy_data"
	ResultFailed          Result = "failed"
)

// Migrator copies legacy state into the persisted store.
type Migrator struct {
	storage  store.Storage
	target   Target
	logger   *slog.Logger
	defaults persisted.Schema
	key      string
	timeout  time.Duration
}

// MigratorOption configures a Migrator
type MigratorOption func(*Migrator)

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaults sets the defaults missing legacy fields fall back to.
func WithDefaults(defaults persisted.Schema) MigratorOption {
	return func(m *Migrator) {
		m.defaults = defaults.Clone()
	}
}

// WithLegacyKey overrides the key the legacy blob is read from.
func WithLegacyKey(key string) MigratorOption {
	return func(m *Migrator) {
		if key != "" {
			m.key = key
		}
	}
}

// WithTimeout bounds a Migrate call. Zero means no bound.
func WithTimeout(d time.Duration) MigratorOption {
	return func(m *Migrator) {
		m.timeout = d
	}
}

// NewMigrator creates a Migrator reading legacy data from storage and
// writing into target.
func NewMigrator(storage store.Storage, target Target, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		storage:  storage,
		target:   target,
		logger:   slog.Default(),
		defaults: persisted.Defaults(),
		key:      DeprecatedRootStateKey,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "legacy")
	return m
}

// Migrate copies the legacy blob into the target if the target is empty and
// a legacy blob exists. It never returns an error: failures are logged and
// reported as ResultFailed, leaving the target untouched.
func (m *Migrator) Migrate(ctx context.Context) Result {
	m.logger.Debug("persisted state: migrate")

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	result, err := m.migrate(ctx)
	if err != nil {
		m.logger.Error("persisted state: error migrating legacy storage", "error", err.Error())
		return ResultFailed
	}
	return result
}

func (m *Migrator) migrate(ctx context.Context) (Result, error) {
	raw, _, err := m.storage.GetItem(ctx, m.key)
	if err != nil {
		return ResultFailed, fmt.Errorf("reading legacy state: %w", err)
	}

	// An unreadable target holds nothing worth keeping, so it counts as not
	// migrated. The persisted store replaces it on Init if nothing is migrated.
	existing, err := m.target.Read(ctx)
	switch {
	case errors.Is(err, persisted.ErrCorrupt):
		m.logger.Warn("persisted state: stored state unreadable, treating as not migrated", "error", err.Error())
		existing = nil
	case err != nil:
		return ResultFailed, err
	}

	if existing != nil {
		return ResultAlreadyMigrated, nil
	}
	if raw == "" {
		return ResultNoLegacyData, nil
	}

	m.logger.Debug("persisted state: migrating legacy storage")

	legacy, err := Parse([]byte(raw))
	if err != nil {
		return ResultFailed, err
	}
	if err := m.target.Write(ctx, TransformWithDefaults(legacy, m.defaults)); err != nil {
		return ResultFailed, err
	}

	m.logger.Debug("persisted state: migrated legacy storage")
	return ResultMigrated, nil
}

// Parse decodes a legacy blob. JSON null is rejected.
func Parse(data []byte) (*Schema, error) {
	var legacy *Schema
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("parsing legacy state: %w", err)
	}
	if legacy == nil {
		return nil, errNullBlob
	}
	return legacy, nil
}

// Compile-time check that the persisted store satisfies Target
var _ Target = (*persisted.Store)(nil)
