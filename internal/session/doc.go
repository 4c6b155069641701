// Package session manages the signed-in accounts kept in persisted state.
//
// Accounts are keyed by DID. The current account is a copy of one entry in
// the account list; removing that entry signs the user out. Inspect reads
// the expiry of an account's stored tokens without verifying signatures,
// since the signing keys belong to the account's service.
package session
