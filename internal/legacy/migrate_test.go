// ABOUTME: Tests for the legacy state migrator
// ABOUTME: Covers the happy path, idempotence, missing data, and swallowed failures

package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/skystate/internal/persisted"
	"github.com/2389/skystate/internal/store"
)

// testLogger returns a JSON logger writing to a buffer at debug level.
func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

func legacyBlob(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(fullLegacy())
	require.NoError(t, err)
	return string(data)
}

func TestMigrate_MigratesLegacyBlob(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))

	target := persisted.NewStore(storage)
	logger, logs := testLogger()

	result := NewMigrator(storage, target, WithLogger(logger)).Migrate(ctx)
	assert.Equal(t, ResultMigrated, result)

	got, err := target.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Transform(fullLegacy()), *got)

	assert.Contains(t, logs.String(), "persisted state: migrate")
	assert.Contains(t, logs.String(), "persisted state: migrated legacy storage")

	// The legacy blob is left in place
	_, ok, err := storage.GetItem(ctx, DeprecatedRootStateKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))
	target := persisted.NewStore(storage)
	m := NewMigrator(storage, target)

	require.Equal(t, ResultMigrated, m.Migrate(ctx))
	first, _, err := storage.GetItem(ctx, persisted.DefaultStorageKey)
	require.NoError(t, err)

	// A different legacy blob must not overwrite the migrated state
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, `{"shell":{"colorMode":"light"}}`))
	assert.Equal(t, ResultAlreadyMigrated, m.Migrate(ctx))

	second, _, err := storage.GetItem(ctx, persisted.DefaultStorageKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMigrate_ExistingStateUntouched(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	target := persisted.NewStore(storage)

	existing := persisted.Defaults()
	existing.ColorMode = persisted.ColorModeLight
	require.NoError(t, target.Write(ctx, existing))
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))
	setCalls := storage.SetCalls

	assert.Equal(t, ResultAlreadyMigrated, NewMigrator(storage, target).Migrate(ctx))
	assert.Equal(t, setCalls, storage.SetCalls)

	got, err := target.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, persisted.ColorModeLight, got.ColorMode)
}

func TestMigrate_NoLegacyData(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	target := persisted.NewStore(storage)

	assert.Equal(t, ResultNoLegacyData, NewMigrator(storage, target).Migrate(ctx))
	assert.Equal(t, 0, storage.SetCalls)

	got, err := target.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMigrate_EmptyLegacyBlob(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, ""))
	target := persisted.NewStore(storage)

	assert.Equal(t, ResultNoLegacyData, NewMigrator(storage, target).Migrate(ctx))
}

func TestMigrate_InvalidJSON(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, "{definitely not json"))
	target := persisted.NewStore(storage)
	logger, logs := testLogger()

	assert.NotPanics(t, func() {
		assert.Equal(t, ResultFailed, NewMigrator(storage, target, WithLogger(logger)).Migrate(ctx))
	})

	got, err := target.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Contains(t, logs.String(), "persisted state: error migrating legacy storage")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), "parsing legacy state")
}

func TestMigrate_NullBlob(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, "null"))
	target := persisted.NewStore(storage)

	assert.Equal(t, ResultFailed, NewMigrator(storage, target).Migrate(ctx))
	got, err := target.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMigrate_ReadFailure(t *testing.T) {
	storage := store.NewMockStore()
	storage.FailGet = errors.New("storage unavailable")
	target := persisted.NewStore(storage)
	logger, logs := testLogger()

	result := NewMigrator(storage, target, WithLogger(logger)).Migrate(context.Background())
	assert.Equal(t, ResultFailed, result)
	assert.Contains(t, logs.String(), "storage unavailable")
}

// failingTarget reports an empty store but rejects writes.
type failingTarget struct {
	writes int
}

func (f *failingTarget) Read(context.Context) (*persisted.Schema, error) { return nil, nil }

func (f *failingTarget) Write(context.Context, persisted.Schema) error {
	f.writes++
	return errors.New("quota exceeded")
}

func TestMigrate_WriteFailure(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))
	target := &failingTarget{}
	logger, logs := testLogger()

	result := NewMigrator(storage, target, WithLogger(logger)).Migrate(ctx)
	assert.Equal(t, ResultFailed, result)
	assert.Equal(t, 1, target.writes)
	assert.Contains(t, logs.String(), "quota exceeded")
}

func TestMigrate_CorruptTargetReplacedByLegacy(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, persisted.DefaultStorageKey, "{corrupt"))
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))
	logger, logs := testLogger()

	target := persisted.NewStore(storage)
	assert.Equal(t, ResultMigrated, NewMigrator(storage, target, WithLogger(logger)).Migrate(ctx))

	got, err := target.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Transform(fullLegacy()), *got)
	assert.Contains(t, logs.String(), "stored state unreadable")
}

func TestMigrate_CorruptTargetWithoutLegacyData(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, persisted.DefaultStorageKey, "{corrupt"))

	assert.Equal(t, ResultNoLegacyData, NewMigrator(storage, persisted.NewStore(storage)).Migrate(ctx))
	assert.Equal(t, 1, storage.SetCalls)
}

func TestMigrate_DroppedFieldWrongType(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, `{
		"me": "stale",
		"session": {
			"data": {"did": "did:plc:a"},
			"accounts": [{"service": "https://bsky.social", "did": "did:plc:a", "handle": "alice.test"}]
		}
	}`))
	target := persisted.NewStore(storage)

	require.Equal(t, ResultMigrated, NewMigrator(storage, target).Migrate(ctx))

	got, err := target.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Session.Accounts, 1)
	require.NotNil(t, got.Session.CurrentAccount)
	assert.Equal(t, "alice.test", got.Session.CurrentAccount.Handle)
}

func TestMigrate_CustomKeyAndDefaults(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMockStore()
	require.NoError(t, storage.SetItem(ctx, "legacy-root", `{"onboarding":{"step":"Welcome"}}`))
	target := persisted.NewStore(storage)
	defaults := persisted.NewDefaults([]string{"fr"})

	m := NewMigrator(storage, target, WithLegacyKey("legacy-root"), WithDefaults(defaults))
	require.Equal(t, ResultMigrated, m.Migrate(ctx))

	got, err := target.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Onboarding.Step)
	assert.Equal(t, "fr", got.LanguagePrefs.PrimaryLanguage)
}

func TestMigrate_Timeout(t *testing.T) {
	storage, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer storage.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMigrator(storage, persisted.NewStore(storage), WithTimeout(time.Second))
	assert.Equal(t, ResultFailed, m.Migrate(ctx))
}

func TestMigrate_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	storage, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.SetItem(ctx, DeprecatedRootStateKey, legacyBlob(t)))
	target := persisted.NewStore(storage)

	require.Equal(t, ResultMigrated, NewMigrator(storage, target).Migrate(ctx))
	require.NoError(t, target.Init(ctx))

	state := target.Get()
	require.NotNil(t, state.Session.CurrentAccount)
	assert.Equal(t, "bob.test", state.Session.CurrentAccount.Handle)
	assert.Equal(t, persisted.ColorModeDark, state.ColorMode)
}
