package backupq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UniQw/backupq/internal/backoff"
	"github.com/UniQw/backupq/internal/clock"
	ikeys "github.com/UniQw/backupq/internal/keys"
	"github.com/UniQw/backupq/internal/runtime"
	"github.com/google/uuid"
)

// QueueStatus is a point-in-time view of the queue.
type QueueStatus struct {
	IsOnline      bool      `json:"is_online"`
	QueueLength   int       `json:"queue_length"`
	IsProcessing  bool      `json:"is_processing"`
	LastCheckedAt time.Time `json:"last_checked_at,omitzero"`
}

// Queue holds backup uploads that still have to reach their destination and
// retries them with exponential backoff. Its contents are saved to a Store
// after every change and loaded once by New.
//
// A Queue assumes it is the only writer of its keys in the Store.
type Queue struct {
	store  Store
	up     Uploader
	keys   ikeys.Set
	cfg    options
	policy backoff.Policy
	status *StatusStore
	log    Logger
	enc    Encoder
	clock  Clock
	rt     *runtime.Runtime
	m      queueMetrics

	mu            sync.Mutex
	items         []*QueuedUpload
	online        bool
	lastCheckedAt time.Time

	// processing guards against overlapping cycles (ticker, online signal, ProcessOnce).
	processing atomic.Bool
	// persistMu serializes saves; the snapshot is taken after acquiring it.
	persistMu sync.Mutex

	lifeMu      sync.Mutex
	unsubscribe func()
}

// New creates a queue backed by store and loads any previously saved
// uploads and status. Unreadable or malformed saved data leaves the queue
// empty. The scan timer does not run until Start is called.
func New(ctx context.Context, store Store, up Uploader, opts ...Option) *Queue {
	cfg := options{
		interval:       defaultInterval,
		baseDelay:      defaultBaseDelay,
		maxDelay:       defaultMaxDelay,
		maxRetries:     defaultMaxRetries,
		maxPayloadSize: defaultMaxPayloadSize,
		clock:          clock.Real{},
		logger:         NewFmtLogger(),
		encoder:        &JSONEncoder{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxRetries <= 0 {
		cfg.maxRetries = defaultMaxRetries
	}

	q := &Queue{
		store:  store,
		up:     up,
		keys:   ikeys.For(cfg.namespace),
		cfg:    cfg,
		policy: backoff.Policy{Base: cfg.baseDelay, Max: cfg.maxDelay},
		log:    cfg.logger,
		enc:    cfg.encoder,
		clock:  cfg.clock,
		m:      newQueueMetrics(cfg.namespace),
		online: true,
	}
	if cfg.connectivity != nil {
		q.online = cfg.connectivity.Online()
	}
	q.status = NewStatusStore(ctx, store, cfg.namespace, cfg.encoder, cfg.logger)
	q.load(ctx)
	q.rt = runtime.New(runtime.Config{Interval: cfg.interval, Name: "backupq", Logger: cfg.logger}, func(ctx context.Context) {
		q.ProcessOnce(ctx)
	})

	q.m.online.Set(boolGauge(q.online))
	return q
}

func (q *Queue) load(ctx context.Context) {
	raw, err := q.store.Load(ctx, q.keys.Queue)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		q.m.persistErrors.Inc()
		q.log.Warnf("load failed; starting with an empty queue: key=%s err=%v", q.keys.Queue, err)
		return
	}
	items, err := decodeQueue(q.enc, raw)
	if err != nil {
		q.log.Debugf("discarding malformed queue data: key=%s err=%v", q.keys.Queue, err)
		return
	}
	kept := items[:0]
	var exhausted []*QueuedUpload
	for _, it := range items {
		if it.Destination.MaxRetries <= 0 {
			it.Destination.MaxRetries = q.cfg.maxRetries
		}
		if it.Attempts >= it.Destination.MaxRetries {
			exhausted = append(exhausted, it)
			continue
		}
		kept = append(kept, it)
	}
	q.mu.Lock()
	q.items = kept
	q.mu.Unlock()
	q.m.queueLength.Set(float64(len(kept)))
	q.log.Infof("queue loaded: key=%s items=%d", q.keys.Queue, len(kept))

	if len(exhausted) == 0 {
		return
	}
	// Saved items past their retry ceiling would never be selected again.
	for _, it := range exhausted {
		q.m.attempts.WithLabelValues(resultTerminal).Inc()
		q.log.Errorf("upload dropped on load: id=%s name=%s attempts=%d max_retries=%d",
			it.ID, it.Artifact.Name, it.Attempts, it.Destination.MaxRetries)
	}
	last := exhausted[len(exhausted)-1]
	reason := last.LastError
	if reason == "" {
		reason = "retry limit reached"
	}
	q.status.Write(ctx, OutcomeFailed, fmt.Sprintf("failed after %d attempts: %s", last.Attempts, reason), q.clock.Now())
	_ = q.persist(ctx)
}

// Enqueue adds an artifact to the queue and saves the queue. The upload is
// due immediately.
//
// When saving fails the upload stays queued in memory: Enqueue then returns
// the valid ID together with an error wrapping ErrNotPersisted.
// It returns ErrDuplicateUpload if an explicit ID is already queued and
// ErrPayloadTooLarge if the artifact exceeds the configured limit.
func (q *Queue) Enqueue(ctx context.Context, a Artifact, d Destination, opts ...EnqueueOption) (string, error) {
	if q.cfg.maxPayloadSize > 0 && int64(len(a.Data)) > q.cfg.maxPayloadSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(a.Data), q.cfg.maxPayloadSize)
	}

	eo := &enqueueOptions{}
	for _, opt := range opts {
		opt(eo)
	}
	id := eo.id
	if id == "" {
		id = uuid.NewString()
	}

	if d.MaxRetries <= 0 {
		d.MaxRetries = q.cfg.maxRetries
	}
	a.Data = bytes.Clone(a.Data)
	if a.Size == 0 {
		a.Size = int64(len(a.Data))
	}

	now := q.clock.Now()
	item := &QueuedUpload{
		ID:          id,
		Artifact:    a,
		Destination: d,
		NextRetryAt: now,
		CreatedAt:   now,
	}

	q.mu.Lock()
	if q.indexLocked(id) >= 0 {
		q.mu.Unlock()
		return "", ErrDuplicateUpload
	}
	q.items = append(q.items, item)
	n := len(q.items)
	q.mu.Unlock()
	q.m.queueLength.Set(float64(n))

	q.log.Infof("enqueued: id=%s name=%s size=%d max_retries=%d", id, a.Name, a.Size, d.MaxRetries)

	if err := q.persist(ctx); err != nil {
		return id, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return id, nil
}

// Remove deletes the upload with the given ID and reports whether it was queued.
func (q *Queue) Remove(ctx context.Context, id string) bool {
	q.mu.Lock()
	removed := q.removeLocked(id)
	n := len(q.items)
	q.mu.Unlock()
	if !removed {
		return false
	}
	q.m.queueLength.Set(float64(n))
	q.log.Infof("removed: id=%s", id)
	_ = q.persist(ctx)
	return true
}

// Get returns a copy of the queued upload with the given ID.
func (q *Queue) Get(id string) (QueuedUpload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(id)
	if i < 0 {
		return QueuedUpload{}, false
	}
	return q.items[i].clone(), true
}

// ListQueued returns copies of all queued uploads in insertion order.
func (q *Queue) ListQueued() []QueuedUpload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedUpload, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.clone())
	}
	return out
}

// Clear empties the queue and saves it.
func (q *Queue) Clear(ctx context.Context) {
	q.mu.Lock()
	n := len(q.items)
	q.items = nil
	q.mu.Unlock()
	q.m.queueLength.Set(0)
	q.log.Infof("cleared: removed=%d", n)
	_ = q.persist(ctx)
}

// Status returns the current queue state.
func (q *Queue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		IsOnline:      q.online,
		QueueLength:   len(q.items),
		IsProcessing:  q.processing.Load(),
		LastCheckedAt: q.lastCheckedAt,
	}
}

// LastStatus returns the last terminal upload outcome.
func (q *Queue) LastStatus() UploadStatus {
	return q.status.Read()
}

// persist saves the whole queue. Failures are logged and counted; the
// in-memory queue keeps operating.
func (q *Queue) persist(ctx context.Context) error {
	q.persistMu.Lock()
	defer q.persistMu.Unlock()

	q.mu.Lock()
	snapshot := make([]QueuedUpload, 0, len(q.items))
	for _, it := range q.items {
		snapshot = append(snapshot, *it)
	}
	q.mu.Unlock()

	raw, err := encodeQueue(q.enc, snapshot)
	if err != nil {
		q.m.persistErrors.Inc()
		q.log.Errorf("encode queue failed: err=%v", err)
		return err
	}
	if err := q.store.Save(ctx, q.keys.Queue, raw); err != nil {
		q.m.persistErrors.Inc()
		q.log.Warnf("save failed; queue continues in memory: key=%s items=%d err=%v", q.keys.Queue, len(snapshot), err)
		return err
	}
	return nil
}

func (q *Queue) indexLocked(id string) int {
	for i, it := range q.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// positionLocked finds the exact item p, not just an item with its ID.
func (q *Queue) positionLocked(p *QueuedUpload) int {
	for i, it := range q.items {
		if it == p {
			return i
		}
	}
	return -1
}

func (q *Queue) removeLocked(id string) bool {
	i := q.indexLocked(id)
	if i < 0 {
		return false
	}
	q.removeAtLocked(i)
	return true
}

func (q *Queue) removeAtLocked(i int) {
	copy(q.items[i:], q.items[i+1:])
	q.items[len(q.items)-1] = nil
	q.items = q.items[:len(q.items)-1]
}
