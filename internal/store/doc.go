// Package store provides the on-device key-value storage that persisted
// client state lives in.
//
// # Architecture
//
// Storage is a small string-keyed, string-valued interface modelled on the
// platform async storage facility the client originally ran against:
//
//   - GetItem: read a value, reporting whether the key exists
//   - SetItem: upsert a value
//   - RemoveItem: delete a key (no error if absent)
//   - Keys: list stored keys in sorted order
//
// SQLiteStore implements Storage on top of a single kv_items table.
// MockStore implements it in memory for tests and can be told to fail.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// Database file locations:
//
//   - Default: ~/.local/share/skystate/state.db
//   - Testing: :memory: or a file under t.TempDir()
//
// # Keys
//
// Two keys matter to the rest of the module:
//
//   - "root": the legacy blob written by the retired client, read once
//   - "BSKY_STORAGE": the current persisted state, owned by package persisted
//
// Values are opaque to this package; both keys hold UTF-8 JSON.
package store
