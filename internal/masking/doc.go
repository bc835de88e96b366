// Package masking provides the client side of the asynchronous masking
// service.
//
// The service accepts one text value per request, answers with an opaque
// tracking id and resolves the request some time later. Clients submit a
// chunk once, then poll the tracking id until the service reports success
// or failure. This package defines the Client interface the pipeline is
// written against and an HTTP implementation of the service's JSON API.
//
// # Error classes
//
// Submit failures of every kind match ErrSubmission. Poll failures that are
// worth retrying (network errors, timeouts, HTTP 408, 429 and 5xx, bodies
// that cannot be decoded) match ErrTransientPoll. A rejection by the service
// is not an error: Poll reports it as StatusFailed with a reason.
//
// # Security
//
// The auth key travels only in the Authorization header and is never
// logged. Request and response bodies carry document text and are never
// logged either.
package masking
