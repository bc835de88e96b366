// Package config provides configuration structures and utilities for docmask.
// It defines the masking service connection settings, the pipeline tunables
// (chunk size, concurrency, polling schedule, deadlines), output and
// disposition settings, and report preferences.
package config
