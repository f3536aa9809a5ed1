package backupq

import (
	"context"
	"sync"
	"testing"
	"time"

	ikeys "github.com/UniQw/backupq/internal/keys"
	"github.com/stretchr/testify/require"
)

// gatedUploader blocks its first call until release is closed, then answers
// every call with the result for that call number.
type gatedUploader struct {
	entered chan struct{}
	release chan struct{}
	first   Result

	mu   sync.Mutex
	seen []string
}

func newGatedUploader(first Result) *gatedUploader {
	return &gatedUploader{entered: make(chan struct{}, 1), release: make(chan struct{}), first: first}
}

func (g *gatedUploader) Upload(_ context.Context, a Artifact, _ Destination) Result {
	g.mu.Lock()
	g.seen = append(g.seen, string(a.Data))
	n := len(g.seen)
	g.mu.Unlock()
	if n > 1 {
		return Result{Success: true}
	}
	g.entered <- struct{}{}
	<-g.release
	return g.first
}

func (g *gatedUploader) uploaded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.seen...)
}

func loadSaved(t *testing.T, store Store) []*QueuedUpload {
	t.Helper()
	raw, err := store.Load(context.Background(), ikeys.Queue(""))
	require.NoError(t, err)
	items, err := decodeQueue(&JSONEncoder{}, raw)
	require.NoError(t, err)
	return items
}

func TestQueue_ReusedIDKeepsNewArtifact(t *testing.T) {
	cases := []struct {
		name  string
		first Result
	}{
		{"late-success", Result{Success: true}},
		{"late-failure", fail("v1 timeout")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			up := newGatedUploader(tc.first)
			q, _ := newTestQueue(t, NewMemoryStore(), up)
			ctx := context.Background()

			_, err := q.Enqueue(ctx, Artifact{Name: "v1", Data: []byte("v1")}, Destination{}, UploadID("nightly"))
			require.NoError(t, err)

			done := make(chan struct{})
			go func() { q.ProcessOnce(ctx); close(done) }()
			<-up.entered

			require.True(t, q.Remove(ctx, "nightly"))
			_, err = q.Enqueue(ctx, Artifact{Name: "v2", Data: []byte("v2")}, Destination{}, UploadID("nightly"))
			require.NoError(t, err)

			close(up.release)
			<-done

			it, ok := q.Get("nightly")
			require.True(t, ok, "the re-enqueued artifact must stay queued")
			require.Equal(t, "v2", it.Artifact.Name)
			require.Zero(t, it.Attempts)
			require.Empty(t, it.LastError)

			require.True(t, q.ProcessOnce(ctx))
			require.Equal(t, []string{"v1", "v2"}, up.uploaded())
			require.Empty(t, q.ListQueued())
		})
	}
}

func TestQueue_OutcomeSavedBeforeNextItem(t *testing.T) {
	store := NewMemoryStore()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	up := UploaderFunc(func(_ context.Context, a Artifact, _ Destination) Result {
		if a.Name == "A" {
			return fail("A down")
		}
		entered <- struct{}{}
		<-release
		return Result{Success: true}
	})
	q, fc := newTestQueue(t, store, up)
	ctx := context.Background()

	idA, err := q.Enqueue(ctx, sampleArtifact("A"), Destination{MaxRetries: 3})
	require.NoError(t, err)
	fc.Advance(time.Second)
	idB, err := q.Enqueue(ctx, sampleArtifact("B"), Destination{MaxRetries: 3})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() { q.ProcessOnce(ctx); close(done) }()
	<-entered

	saved := loadSaved(t, store)
	require.Len(t, saved, 2)
	require.Equal(t, idA, saved[0].ID)
	require.Equal(t, 1, saved[0].Attempts)
	require.Equal(t, "A down", saved[0].LastError)
	require.True(t, saved[0].NextRetryAt.After(fc.Now()))
	require.Equal(t, idB, saved[1].ID)
	require.Zero(t, saved[1].Attempts)

	close(release)
	<-done

	saved = loadSaved(t, store)
	require.Len(t, saved, 1)
	require.Equal(t, idA, saved[0].ID)
}

func TestQueue_ProcessingContinuesWhenSavesFail(t *testing.T) {
	fs := &flakyStore{Store: NewMemoryStore()}
	up := &scriptedUploader{results: []Result{fail("HTTP 502")}}
	q, fc := newTestQueue(t, fs, up)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleArtifact("A"), Destination{MaxRetries: 2})
	require.NoError(t, err)
	fs.failSave.Store(true)

	require.True(t, q.ProcessOnce(ctx))
	it, ok := q.Get(id)
	require.True(t, ok)
	require.Equal(t, 1, it.Attempts)
	require.Equal(t, "HTTP 502", it.LastError)

	fc.Advance(time.Hour)
	require.True(t, q.ProcessOnce(ctx))
	_, ok = q.Get(id)
	require.False(t, ok, "terminal removal happens in memory")
	require.Zero(t, q.Status().QueueLength)
	require.Equal(t, 2, up.calls())

	st := q.LastStatus()
	require.Equal(t, OutcomeFailed, st.Outcome)
	require.Equal(t, "failed after 2 attempts: HTTP 502", st.Message)

	// the store still holds the last state it accepted
	saved := loadSaved(t, fs.Store)
	require.Len(t, saved, 1)
	require.Zero(t, saved[0].Attempts)
}

func TestQueue_LoadDropsExhaustedItems(t *testing.T) {
	store := NewMemoryStore()
	raw := `[
{"id":"spent","artifact":{"name":"a.bak","size":1,"data":"eA=="},"destination":{"endpoint":"x","max_retries":3},"attempts":3,"last_error":"HTTP 500","next_retry_at":"2025-06-01T09:00:00Z","created_at":"2025-06-01T08:00:00Z"},
{"id":"lowered","artifact":{"name":"b.bak","size":1,"data":"eA=="},"destination":{"endpoint":"x"},"attempts":2,"next_retry_at":"2025-06-01T09:00:00Z","created_at":"2025-06-01T08:00:00Z"},
{"id":"fresh","artifact":{"name":"c.bak","size":1,"data":"eA=="},"destination":{"endpoint":"x","max_retries":3},"attempts":1,"next_retry_at":"2025-06-01T09:00:00Z","created_at":"2025-06-01T08:00:00Z"}
]`
	require.NoError(t, store.Save(context.Background(), ikeys.Queue(""), []byte(raw)))

	q, _ := newTestQueue(t, store, &scriptedUploader{}, WithDefaultMaxRetries(2))
	list := q.ListQueued()
	require.Len(t, list, 1)
	require.Equal(t, "fresh", list[0].ID)

	st := q.LastStatus()
	require.Equal(t, OutcomeFailed, st.Outcome)
	require.Equal(t, "failed after 2 attempts: retry limit reached", st.Message)
	require.True(t, st.LastUploadAt.Equal(t0))

	saved := loadSaved(t, store)
	require.Len(t, saved, 1)
	require.Equal(t, "fresh", saved[0].ID)

	require.True(t, q.ProcessOnce(context.Background()))
	require.Empty(t, q.ListQueued())
}
