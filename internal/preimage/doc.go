// Package preimage loads the content-addressed preimage set produced by the
// native host into an immutable in-memory store.
//
// On disk the set is a flat directory. Every regular file is one preimage:
// the file name without its extension is the lowercase hex encoding of the
// 32-byte key, and the file content is the value.
//
// Loading is all-or-nothing. A single malformed file name fails the whole
// load with a *MalformedEntryError naming the file; a missing or corrupt
// preimage would otherwise surface much later as a proving failure.
//
// The store is built once and never mutated afterwards, so it is safe for
// concurrent readers without locking.
package preimage
