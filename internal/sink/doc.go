// Package sink delivers the assembled masked text of a document.
//
// FileSink writes <name>.<ext>_masked_output.txt into an output directory,
// or next to the source document when no directory is configured. MinioSink
// uploads the same object name to an S3-compatible bucket. Neither replaces
// an existing output unless overwriting is enabled. Multi fans one write
// out to several sinks.
package sink
