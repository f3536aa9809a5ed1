// Package kv holds the key-value backends the queue persists into. Every
// backend overwrites a key wholesale on Save; there are no partial writes.
package kv

import "errors"

// ErrNotFound is returned by Load when the key has never been saved.
var ErrNotFound = errors.New("kv: key not found")
