// Package app wires storage, legacy migration and the persisted store
// together in startup order.
//
// Open runs the legacy migration before the persisted store is initialized,
// so nothing reads persisted state until migration has finished or failed.
// A failed migration does not fail Open; the store then starts from
// defaults. Storage or initialization failures do.
package app
