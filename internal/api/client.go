package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Error is a non-2xx reply from the admin API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("admin api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("admin api: %d: %s", e.Status, e.Message)
}

// Client talks to a running backupq daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets baseURL, e.g. http://127.0.0.1:8765. A nil httpClient gets a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// EnqueueRequest describes one file to hand to the daemon.
type EnqueueRequest struct {
	// ID is optional; the daemon generates one when empty.
	ID          string
	Name        string
	ContentType string
	Data        []byte
	Endpoint    string
	FolderID    string
	NotifyEmail string
	MaxRetries  int
}

// Enqueue uploads the file as multipart/form-data.
func (c *Client) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"id":        req.ID,
		"name":      req.Name,
		"endpoint":  req.Endpoint,
		"folder_id": req.FolderID,
		"email":     req.NotifyEmail,
	}
	if req.MaxRetries > 0 {
		fields["max_retries"] = strconv.Itoa(req.MaxRetries)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return EnqueueResponse{}, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Name))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return EnqueueResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return EnqueueResponse{}, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return EnqueueResponse{}, fmt.Errorf("close multipart: %w", err)
	}

	var out EnqueueResponse
	err = c.do(ctx, http.MethodPost, "/api/v1/uploads", mw.FormDataContentType(), &body, http.StatusAccepted, &out)
	return out, err
}

// List returns the queued uploads.
func (c *Client) List(ctx context.Context) (ListResponse, error) {
	var out ListResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/uploads", "", nil, http.StatusOK, &out)
	return out, err
}

// Get returns one queued upload.
func (c *Client) Get(ctx context.Context, id string) (Upload, error) {
	var out Upload
	err := c.do(ctx, http.MethodGet, "/api/v1/uploads/"+id, "", nil, http.StatusOK, &out)
	return out, err
}

// Remove deletes one queued upload. A missing upload is an *Error with status 404.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/uploads/"+id, "", nil, http.StatusNoContent, nil)
}

// Clear empties the queue.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/uploads", "", nil, http.StatusNoContent, nil)
}

// Status returns the queue state and the last upload outcome.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/status", "", nil, http.StatusOK, &out)
	return out, err
}

// Process asks the daemon to run a processing cycle now.
func (c *Client) Process(ctx context.Context) (bool, error) {
	var out ProcessResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/process", "", nil, http.StatusOK, &out)
	return out.Ran, err
}

// SetOnline reports a connectivity change to the daemon.
func (c *Client) SetOnline(ctx context.Context, online bool) error {
	state := "offline"
	if online {
		state = "online"
	}
	return c.do(ctx, http.MethodPost, "/api/v1/connectivity/"+state, "", nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", method, path, err)
	}
	if resp.StatusCode != want {
		apiErr := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var eb errorBody
		if sonic.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", method, path, err)
	}
	return nil
}
