package backupq

import (
	"context"
	"errors"
	"sync"
	"time"

	ikeys "github.com/UniQw/backupq/internal/keys"
)

// UploadStatus is the last terminal upload outcome.
type UploadStatus struct {
	LastUploadAt time.Time `json:"last_upload_at,omitzero"`
	Outcome      Outcome   `json:"outcome"`
	Message      string    `json:"message"`
}

// NoUploadStatus is returned by StatusStore.Read before any terminal outcome was written.
var NoUploadStatus = UploadStatus{Outcome: OutcomeNone, Message: "no upload attempted yet"}

// StatusStore holds the process-wide last upload outcome and mirrors it into a Store.
type StatusStore struct {
	store Store
	key   string
	ns    string
	enc   Encoder
	log   Logger

	mu  sync.RWMutex
	cur UploadStatus
	set bool
}

// NewStatusStore loads the persisted status for namespace ns, if any.
// A missing or unreadable record yields NoUploadStatus.
func NewStatusStore(ctx context.Context, store Store, ns string, enc Encoder, log Logger) *StatusStore {
	if enc == nil {
		enc = &JSONEncoder{}
	}
	if log == nil {
		log = NopLogger{}
	}
	s := &StatusStore{store: store, key: ikeys.Status(ns), ns: ns, enc: enc, log: log}
	s.load(ctx)
	return s
}

func (s *StatusStore) load(ctx context.Context) {
	raw, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warnf("status: load failed key=%s err=%v", s.key, err)
		persistErrorsTotal.WithLabelValues(s.ns).Inc()
		return
	}
	var st UploadStatus
	if err := s.enc.Decode(raw, &st); err != nil {
		s.log.Debugf("status: discarding malformed record key=%s err=%v", s.key, err)
		return
	}
	if _, err := ParseOutcome(string(st.Outcome)); err != nil || st.Outcome == OutcomeNone {
		return
	}
	s.cur = st
	s.set = true
}

// Write overwrites the status and saves it. A save failure is logged and the
// in-memory value still changes.
func (s *StatusStore) Write(ctx context.Context, outcome Outcome, message string, at time.Time) {
	st := UploadStatus{LastUploadAt: at, Outcome: outcome, Message: message}
	s.mu.Lock()
	s.cur = st
	s.set = true
	s.mu.Unlock()

	raw, err := s.enc.Encode(st)
	if err != nil {
		s.log.Errorf("status: encode failed err=%v", err)
		return
	}
	if err := s.store.Save(ctx, s.key, raw); err != nil {
		persistErrorsTotal.WithLabelValues(s.ns).Inc()
		s.log.Warnf("status: save failed key=%s err=%v", s.key, err)
	}
}

// Read returns the last written status or NoUploadStatus.
func (s *StatusStore) Read() UploadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return NoUploadStatus
	}
	return s.cur
}
