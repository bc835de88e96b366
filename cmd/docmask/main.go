// Package main provides the entry point for the docmask CLI.
//
// docmask masks sensitive text in documents through an asynchronous masking
// service. Documents are split into word-bounded chunks, submitted
// concurrently, polled until each chunk resolves and reassembled in the
// original paragraph order.
//
// Usage:
//
//	docmask mask <document|directory>...
//	docmask validate
//	docmask history [document]
//
// See --help for all available options.
package main

// main is the entry point for docmask.
func main() {
	Execute()
}
