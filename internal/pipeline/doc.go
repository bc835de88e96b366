// Package pipeline runs one document through the masking service.
//
// A document is processed by four steps over a shared model.MaskJob:
//
//	chunk     paragraphs -> word-bounded chunks (internal/chunker)
//	dispatch  chunks -> tracking records, bounded concurrent submissions
//	poll      tracking records -> terminal states, synchronous rounds
//	assemble  terminal states -> output text in the original paragraph order
//
// Individual chunks may fail or time out; the job then keeps their original
// text and records why. Only configuration errors, cancellation and broken
// internal invariants abort a document, surfacing as *PipelineError.
//
// Design decision: Dispatch and poll are separate steps with separate
// concurrency rather than one goroutine per chunk that submits and then
// polls. Polling in rounds lets a single timer drive every outstanding
// request and keeps state transitions on one goroutine.
package pipeline
