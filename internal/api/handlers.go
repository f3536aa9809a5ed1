package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/UniQw/backupq"
	"github.com/go-chi/chi/v5"
)

// Queue is the part of *backupq.Queue the API drives.
type Queue interface {
	Enqueue(ctx context.Context, a backupq.Artifact, d backupq.Destination, opts ...backupq.EnqueueOption) (string, error)
	Remove(ctx context.Context, id string) bool
	Get(id string) (backupq.QueuedUpload, bool)
	ListQueued() []backupq.QueuedUpload
	Clear(ctx context.Context)
	Status() backupq.QueueStatus
	LastStatus() backupq.UploadStatus
	ProcessOnce(ctx context.Context) bool
	OnOnline()
	OnOffline()
}

// OnlineSetter is a connectivity source the API can flip, such as
// *backupq.ManualConnectivity.
type OnlineSetter interface {
	SetOnline(online bool)
}

// multipartOverhead is allowed on top of the payload limit for form fields and boundaries.
const multipartOverhead = 1 << 20

type handler struct {
	q          Queue
	conn       OnlineSetter
	maxPayload int64
	logger     *slog.Logger
}

func (h *handler) enqueue(w http.ResponseWriter, r *http.Request) {
	if h.maxPayload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidation, "expected multipart/form-data: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "missing form file \"file\"")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "read file: "+err.Error())
		return
	}

	dest := backupq.Destination{
		Endpoint:    strings.TrimSpace(r.FormValue("endpoint")),
		FolderID:    strings.TrimSpace(r.FormValue("folder_id")),
		NotifyEmail: strings.TrimSpace(r.FormValue("email")),
	}
	if v := r.FormValue("max_retries"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, CodeValidation, "max_retries must be a positive integer")
			return
		}
		dest.MaxRetries = n
	}

	name := r.FormValue("name")
	if name == "" {
		name = hdr.Filename
	}
	art := backupq.Artifact{
		Name:        name,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}

	var opts []backupq.EnqueueOption
	if id := strings.TrimSpace(r.FormValue("id")); id != "" {
		opts = append(opts, backupq.UploadID(id))
	}

	id, err := h.q.Enqueue(r.Context(), art, dest, opts...)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, EnqueueResponse{ID: id, Persisted: true})
	case errors.Is(err, backupq.ErrNotPersisted):
		h.logger.Warn("upload queued in memory only", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusAccepted, EnqueueResponse{ID: id, Persisted: false})
	case errors.Is(err, backupq.ErrDuplicateUpload):
		writeError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, backupq.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	items := h.q.ListQueued()
	out := make([]Upload, 0, len(items))
	for _, it := range items {
		out = append(out, toUpload(it))
	}
	writeJSON(w, http.StatusOK, ListResponse{Uploads: out, Total: len(out)})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, ok := h.q.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, backupq.ErrUploadNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, toUpload(it))
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.q.Remove(r.Context(), id) {
		writeError(w, http.StatusNotFound, CodeNotFound, backupq.ErrUploadNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	h.q.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Queue: h.q.Status(), LastUpload: h.q.LastStatus()})
}

func (h *handler) process(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProcessResponse{Ran: h.q.ProcessOnce(r.Context())})
}

func (h *handler) connectivity(w http.ResponseWriter, r *http.Request) {
	var online bool
	switch chi.URLParam(r, "state") {
	case "online":
		online = true
	case "offline":
	default:
		writeError(w, http.StatusBadRequest, CodeValidation, "state must be online or offline")
		return
	}
	switch {
	case h.conn != nil:
		h.conn.SetOnline(online)
	case online:
		h.q.OnOnline()
	default:
		h.q.OnOffline()
	}
	writeJSON(w, http.StatusOK, h.q.Status())
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
