package backupq

import (
	"errors"

	"github.com/UniQw/backupq/internal/kv"
)

// ErrDuplicateUpload is returned when Enqueue is called with an ID that is already queued.
var ErrDuplicateUpload = errors.New("backupq: duplicate upload id")

// ErrUploadNotFound is returned when an upload with the specified ID is not queued.
var ErrUploadNotFound = errors.New("backupq: upload not found")

// ErrPayloadTooLarge is returned when an artifact exceeds the configured maximum payload size.
var ErrPayloadTooLarge = errors.New("backupq: payload too large")

// ErrNotPersisted accompanies a valid upload ID when the item was queued in
// memory but could not be saved. The upload will still be attempted.
var ErrNotPersisted = errors.New("backupq: upload queued in memory only")

// ErrNotFound is returned by a Store when the key has never been saved.
var ErrNotFound = kv.ErrNotFound

// ErrUnknownOutcome is returned when parsing an invalid outcome.
var ErrUnknownOutcome = errors.New("backupq: unknown outcome")
