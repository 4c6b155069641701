// Package persisted owns the client's current persisted state.
//
// # Schema
//
// Schema is the flattened state tree the client reads at startup:
//
//   - colorMode: system, light or dark
//   - session: known accounts and the current account
//   - reminders: last email confirmation reminder timestamp
//   - languagePrefs: primary, content, post and post history languages
//   - requireAltTextEnabled, mutedThreads, invites, onboarding
//
// Every field has a default (see NewDefaults), so a Schema loaded through
// Store is always fully populated: Read fills fields missing from the stored
// value with the store's defaults, and an empty object counts as nothing
// stored.
//
// # Lifecycle
//
// Store wraps a store.Storage and a single key. Read and Write are the raw
// primitives used by the legacy migrator. Init loads the stored state (or
// writes defaults when nothing is stored) and must run after migration and
// before any Get or Update. Update is the only mutation entry point once the
// store is initialized; subscribers receive every committed state.
package persisted
