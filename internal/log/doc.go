// Package log provides the redacting slog handler used by every docmask
// component.
//
// Two kinds of values never reach log output:
//   - credentials: the masking service auth key, Authorization headers,
//     MinIO access and secret keys, and any value that looks like a token
//   - document text: the raw paragraph or chunk text and the masked text the
//     service returns; these are replaced by a length summary
//
// Even in verbose mode these values are replaced so logs can be shared
// without leaking either the credential or the content being protected.
//
// # Usage
//
//	logger := log.NewRedactingLogger(os.Stderr, verbose)
//	logger.Debug("chunk submitted",
//	    "sequence", 3,
//	    "chunk_text", chunk.Text, // logged as "[212 chars redacted]"
//	)
package log
