package api

import (
	"time"

	"github.com/UniQw/backupq"
)

// Upload is the API view of a queued upload. Artifact bytes are never returned.
type Upload struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContentType   string    `json:"content_type,omitempty"`
	Size          int64     `json:"size"`
	Endpoint      string    `json:"endpoint"`
	FolderID      string    `json:"folder_id,omitempty"`
	NotifyEmail   string    `json:"notify_email,omitempty"`
	MaxRetries    int       `json:"max_retries"`
	Attempts      int       `json:"attempts"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitzero"`
	NextRetryAt   time.Time `json:"next_retry_at"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUpload(u backupq.QueuedUpload) Upload {
	return Upload{
		ID:            u.ID,
		Name:          u.Artifact.Name,
		ContentType:   u.Artifact.ContentType,
		Size:          u.Artifact.Size,
		Endpoint:      u.Destination.Endpoint,
		FolderID:      u.Destination.FolderID,
		NotifyEmail:   u.Destination.NotifyEmail,
		MaxRetries:    u.Destination.MaxRetries,
		Attempts:      u.Attempts,
		LastAttemptAt: u.LastAttemptAt,
		NextRetryAt:   u.NextRetryAt,
		LastError:     u.LastError,
		CreatedAt:     u.CreatedAt,
	}
}

// EnqueueResponse is returned by POST /api/v1/uploads.
type EnqueueResponse struct {
	ID string `json:"id"`
	// Persisted is false when the upload is queued in memory only.
	Persisted bool `json:"persisted"`
}

// ListResponse is returned by GET /api/v1/uploads.
type ListResponse struct {
	Uploads []Upload `json:"uploads"`
	Total   int      `json:"total"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Queue      backupq.QueueStatus  `json:"queue"`
	LastUpload backupq.UploadStatus `json:"last_upload"`
}

// ProcessResponse is returned by POST /api/v1/process.
type ProcessResponse struct {
	Ran bool `json:"ran"`
}
