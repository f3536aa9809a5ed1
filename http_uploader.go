package backupq

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names carrying attempt metadata on HTTP uploads.
const (
	HeaderUploadID = "X-Backup-Upload-ID"
	HeaderAttempt  = "X-Backup-Attempt"
)

// maxResponseBody bounds how much of a response body is read for diagnostics.
const maxResponseBody = 64 << 10

// uploadRequest is the JSON document posted to Destination.Endpoint.
type uploadRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
	FileData string `json:"fileData"`
	FolderID string `json:"folderId,omitempty"`
	Email    string `json:"email,omitempty"`
}

// uploadResponse is the optional JSON reply. A reply with success=false is a
// failure even on a 2xx status.
type uploadResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HTTPUploader posts artifacts as base64 JSON documents to the destination
// endpoint, one request per attempt.
type HTTPUploader struct {
	client *http.Client
	enc    Encoder
	log    Logger
}

// NewHTTPUploader creates an uploader. A nil client gets a 60s timeout.
func NewHTTPUploader(client *http.Client, log Logger) *HTTPUploader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = NopLogger{}
	}
	return &HTTPUploader{client: client, enc: &JSONEncoder{}, log: log}
}

// Upload sends a single request. Transport errors, non-2xx statuses and
// success=false replies are reported as failures.
func (h *HTTPUploader) Upload(ctx context.Context, a Artifact, d Destination) Result {
	if d.Endpoint == "" {
		return Result{Success: false, Message: "destination endpoint is empty"}
	}
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	body, err := h.enc.Encode(uploadRequest{
		FileName: a.Name,
		MimeType: ct,
		FileSize: int64(len(a.Data)),
		FileData: base64.StdEncoding.EncodeToString(a.Data),
		FolderID: d.FolderID,
		Email:    d.NotifyEmail,
	})
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if at, ok := AttemptFromContext(ctx); ok {
		req.Header.Set(HeaderUploadID, at.UploadID)
		req.Header.Set(HeaderAttempt, strconv.Itoa(at.Number))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("request to %s: %v", d.Endpoint, err)}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("upload rejected: HTTP %d", resp.StatusCode)
		if snippet := strings.TrimSpace(string(raw)); snippet != "" {
			msg += ": " + truncate(snippet, 200)
		}
		return Result{Success: false, Message: msg}
	}

	var r uploadResponse
	if len(bytes.TrimSpace(raw)) > 0 && h.enc.Decode(raw, &r) == nil && r.Success != nil {
		if !*r.Success {
			msg := firstNonEmpty(r.Message, r.Error, "remote endpoint reported failure")
			return Result{Success: false, Message: msg}
		}
		return Result{Success: true, Message: firstNonEmpty(r.Message, "uploaded "+a.Name)}
	}
	return Result{Success: true, Message: "uploaded " + a.Name}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
