// Package legacy migrates state written by the retired client into the
// current persisted store.
//
// The retired client serialized its whole state tree as JSON under the
// storage key "root". Transform maps that tree onto persisted.Schema, and
// Migrator.Migrate performs the one-shot copy at startup:
//
//	NOT_MIGRATED --(legacy blob present, new store empty)--> MIGRATED
//
// Once the new store holds a value, Migrate never writes again, so calling
// it on every startup is safe. Migration is best effort: any failure is
// logged and swallowed, and the client starts from defaults instead.
//
// # Falsy values
//
// Every legacy leaf whose value is falsy (empty string, empty list, false,
// zero) is treated exactly like a missing one and replaced by the default.
// A legacy requireAltTextEnabled of false and a missing one both migrate to
// the default.
//
// # Decoding
//
// The blob is decoded leniently. Groups that are not migrated (me,
// contentLabels, savedFeeds, pinnedFeeds, seenDids) are never decoded, and a
// migrated value of the wrong type decodes as unset, so it also falls back to
// its default. Only a blob that is not JSON, or whose top level is not an
// object, fails the migration.
//
// A stored state the persisted store cannot decode does not count as
// migrated; the legacy blob replaces it.
package legacy
