package backupq

import (
	"bytes"
	"time"
)

// Artifact is a backup blob plus the metadata needed to upload it.
// Data is persisted in full so queued uploads survive a restart.
type Artifact struct {
	// Name is the file name used on the remote side.
	Name string `json:"name"`
	// ContentType is the MIME type sent with the upload.
	ContentType string `json:"content_type,omitempty"`
	// Size is the byte length of Data. Enqueue fills it in when zero.
	Size int64 `json:"size"`
	// Data is the raw artifact content, stored base64-encoded.
	Data []byte `json:"data"`
}

// Destination describes where an artifact goes and how hard to try.
type Destination struct {
	// Endpoint is the upload URL (HTTP uploader) or left empty for S3.
	Endpoint string `json:"endpoint"`
	// FolderID identifies the remote folder, or the bucket for S3.
	FolderID string `json:"folder_id,omitempty"`
	// NotifyEmail is forwarded to the remote side for completion mail.
	NotifyEmail string `json:"notify_email,omitempty"`
	// MaxRetries is the total number of attempts before the upload is dropped.
	MaxRetries int `json:"max_retries"`
}

// QueuedUpload is one artifact waiting in the retry queue.
// It is serialized to JSON and saved in the Store.
type QueuedUpload struct {
	// ID is the unique identifier of the queued upload.
	ID string `json:"id"`
	// Artifact is the content to upload.
	Artifact Artifact `json:"artifact"`
	// Destination is the upload target.
	Destination Destination `json:"destination"`
	// Attempts is the number of upload attempts made so far.
	Attempts int `json:"attempts"`
	// LastAttemptAt is when the most recent attempt finished.
	LastAttemptAt time.Time `json:"last_attempt_at,omitzero"`
	// NextRetryAt is the earliest time the next attempt may run.
	NextRetryAt time.Time `json:"next_retry_at"`
	// LastError is the failure reason of the most recent attempt.
	LastError string `json:"last_error,omitempty"`
	// CreatedAt is when the upload was enqueued.
	CreatedAt time.Time `json:"created_at"`
}

// clone returns a copy that shares no memory with u.
func (u *QueuedUpload) clone() QueuedUpload {
	c := *u
	c.Artifact.Data = bytes.Clone(u.Artifact.Data)
	return c
}
