// Package model defines the core data structures used throughout docmask.
//
// This package contains the following main types:
//   - Paragraph: An ordered text unit read from a source document
//   - Chunk: A word-bounded slice of one paragraph sent as one masking request
//   - TrackingRecord: The lifecycle of one in-flight masking request
//   - MaskedResult: The resolved text of a chunk, masked or fallback
//   - MaskJob: The per-document unit of work that flows through the pipeline
//   - JobSummary: Per-state counts of a finished job, used by reports and audit
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The chunker, pipeline, database and report packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// audit storage.
package model
