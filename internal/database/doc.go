// Package database provides the SQLite audit store for docmask.
//
// The AuditDB records, for every processed document:
//   - One row per mask job with per-state chunk counts
//   - One row per chunk with its terminal state, poll count and reason
//
// Design decision: We store a SHA3-256 digest of each chunk's source text
// instead of the text itself. The store exists to answer "which parts of
// which document were left unmasked and why", and keeping the plaintext
// would turn the audit trail into a copy of the sensitive content. A digest
// still lets an operator confirm that a given passage is the one that fell
// back.
//
// We use SQLite (via modernc.org/sqlite) because the database is a single
// file in the XDG data directory and the driver needs no CGO.
package database
