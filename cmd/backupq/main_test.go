package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UniQw/backupq"
	"github.com/UniQw/backupq/internal/api"
	"github.com/UniQw/backupq/internal/config"
	"github.com/stretchr/testify/require"
)

// daemon runs an in-process queue behind the admin API for CLI tests.
func daemon(t *testing.T) (*backupq.Queue, *atomic.Int32, string) {
	t.Helper()
	var calls atomic.Int32
	up := backupq.UploaderFunc(func(context.Context, backupq.Artifact, backupq.Destination) backupq.Result {
		calls.Add(1)
		return backupq.Result{Success: true, Message: "stored"}
	})
	q := backupq.New(context.Background(), backupq.NewMemoryStore(), up,
		backupq.WithLogger(backupq.NopLogger{}), backupq.WithInterval(time.Hour))
	srv := httptest.NewServer(api.NewRouter(q, api.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}))
	t.Cleanup(srv.Close)
	return q, &calls, srv.URL
}

func run(t *testing.T, apiURL string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&app{stderr: &errOut})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--api", apiURL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_EnqueueListRemove(t *testing.T) {
	q, _, url := daemon(t)
	q.OnOffline()

	file := filepath.Join(t.TempDir(), "shop-2025-06-01.bak")
	require.NoError(t, os.WriteFile(file, []byte("encrypted"), 0o600))

	out, err := run(t, url, "enqueue", file, "--endpoint", "https://script.example/exec", "--id", "b-1", "--max-retries", "5")
	require.NoError(t, err)
	require.Equal(t, "b-1\n", out)

	it, ok := q.Get("b-1")
	require.True(t, ok)
	require.Equal(t, "shop-2025-06-01.bak", it.Artifact.Name)
	require.Equal(t, []byte("encrypted"), it.Artifact.Data)
	require.Equal(t, 5, it.Destination.MaxRetries)

	out, err = run(t, url, "list")
	require.NoError(t, err)
	require.Contains(t, out, "ATTEMPTS")
	require.Contains(t, out, "b-1")
	require.Contains(t, out, "0/5")

	out, err = run(t, url, "list", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"id": "b-1"`)

	out, err = run(t, url, "remove", "b-1")
	require.NoError(t, err)
	require.Equal(t, "removed b-1\n", out)

	_, err = run(t, url, "remove", "b-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestCLI_StatusProcessClear(t *testing.T) {
	q, calls, url := daemon(t)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, backupq.Artifact{Name: "a", Data: []byte("a")}, backupq.Destination{})
	require.NoError(t, err)

	out, err := run(t, url, "status")
	require.NoError(t, err)
	require.Contains(t, out, "queued:       1")
	require.Contains(t, out, "last upload:  none (no upload attempted yet)")

	out, err = run(t, url, "process")
	require.NoError(t, err)
	require.Equal(t, "processing cycle completed\n", out)
	require.Equal(t, int32(1), calls.Load())

	out, err = run(t, url, "status", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"outcome": "success"`)

	_, err = q.Enqueue(ctx, backupq.Artifact{Name: "b", Data: []byte("b")}, backupq.Destination{})
	require.NoError(t, err)
	out, err = run(t, url, "clear")
	require.NoError(t, err)
	require.Equal(t, "queue cleared\n", out)
	require.Zero(t, q.Status().QueueLength)

	out, err = run(t, url, "process")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "processing skipped"))
}

func TestCLI_Connectivity(t *testing.T) {
	q, _, url := daemon(t)
	_, err := run(t, url, "connectivity", "offline")
	require.NoError(t, err)
	require.False(t, q.Status().IsOnline)
	_, err = run(t, url, "connectivity", "online")
	require.NoError(t, err)
	require.True(t, q.Status().IsOnline)

	_, err = run(t, url, "connectivity", "sideways")
	require.Error(t, err)
}

func TestCLI_BadConfig(t *testing.T) {
	t.Setenv("BACKUPQ_STORE", "floppy")
	_, err := run(t, "http://127.0.0.1:1", "status")
	require.Error(t, err)
	require.Contains(t, err.Error(), "BACKUPQ_STORE")
}

func TestOpenStore_FileAndMemory(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := openStore(ctx, &config.Config{Store: config.StoreFile, FileDir: t.TempDir()})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	m, closeMem, err := openStore(ctx, &config.Config{Store: config.StoreMemory})
	require.NoError(t, err)
	closeMem()
	_, err = m.Load(ctx, "missing")
	require.ErrorIs(t, err, backupq.ErrNotFound)

	_, _, err = openStore(ctx, &config.Config{Store: "tape"})
	require.Error(t, err)
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _, err := openStore(ctx, &config.Config{Store: config.StoreRedis, RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestNewUploader(t *testing.T) {
	up, err := newUploader(&config.Config{Uploader: config.UploaderHTTP}, backupq.NopLogger{})
	require.NoError(t, err)
	require.IsType(t, &backupq.HTTPUploader{}, up)

	up, err = newUploader(&config.Config{Uploader: config.UploaderS3, S3Endpoint: "127.0.0.1:9000", S3Region: "us-east-1"}, backupq.NopLogger{})
	require.NoError(t, err)
	require.IsType(t, &backupq.S3Uploader{}, up)

	_, err = newUploader(&config.Config{Uploader: "carrier-pigeon"}, backupq.NopLogger{})
	require.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Addr:            "127.0.0.1:0",
		Store:           config.StoreMemory,
		Uploader:        config.UploaderHTTP,
		Interval:        time.Hour,
		BaseDelay:       time.Second,
		MaxDelay:        time.Minute,
		MaxRetries:      3,
		ShutdownTimeout: time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
