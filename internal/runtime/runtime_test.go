package runtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRuntime_StartStop_Idempotent(t *testing.T) {
	rt := New(Config{Interval: time.Hour}, func(context.Context) {})

	// start/stop multiple times should be safe
	rt.Start(context.Background())
	rt.Start(context.Background())
	require.True(t, rt.Running())
	rt.Stop()
	rt.Stop()
	require.False(t, rt.Running())
}

func TestRuntime_TicksPeriodically(t *testing.T) {
	var n atomic.Int32
	rt := New(Config{Interval: 20 * time.Millisecond}, func(context.Context) { n.Add(1) })
	rt.Start(context.Background())
	defer rt.Stop()

	require.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRuntime_Kick_RunsWithoutWaitingForTick(t *testing.T) {
	ran := make(chan struct{}, 4)
	rt := New(Config{Interval: time.Hour}, func(context.Context) { ran <- struct{}{} })

	require.False(t, rt.Kick(), "kick before start is a no-op")

	rt.Start(context.Background())
	defer rt.Stop()
	require.True(t, rt.Kick())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("kick did not trigger a pass")
	}
}

func TestRuntime_PanicDoesNotKillLoop(t *testing.T) {
	var n atomic.Int32
	rt := New(Config{Interval: time.Hour}, func(context.Context) {
		if n.Add(1) == 1 {
			panic("boom")
		}
	})
	rt.Start(context.Background())
	defer rt.Stop()

	rt.Kick()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { rt.Kick(); return n.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRuntime_StopWaitsForPass(t *testing.T) {
	entered := make(chan struct{})
	var finished atomic.Bool
	rt := New(Config{Interval: time.Hour}, func(ctx context.Context) {
		close(entered)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})
	rt.Start(context.Background())
	rt.Kick()
	<-entered
	rt.Stop()
	require.True(t, finished.Load(), "Stop must wait for the in-flight pass")
}

func TestRuntime_RestartAfterStop(t *testing.T) {
	var n atomic.Int32
	rt := New(Config{Interval: time.Hour}, func(context.Context) { n.Add(1) })
	rt.Start(context.Background())
	rt.Stop()

	rt.Start(context.Background())
	defer rt.Stop()
	rt.Kick()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
}
