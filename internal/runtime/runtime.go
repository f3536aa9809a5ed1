package runtime

import (
	"context"
	"sync"
	"time"
)

// Logger is a minimal logging interface used internally by the runtime.
// It mirrors the public logger in the root package to avoid an import cycle.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

type Config struct {
	// Interval is the period of the scan timer.
	Interval time.Duration
	// Name labels log lines emitted by the runtime.
	Name   string
	Logger Logger
}

// Tick performs one pass of background work. It must return once ctx is done.
type Tick func(ctx context.Context)

// Runtime drives a Tick on a fixed period and on demand. Passes never overlap:
// the ticker and Kick are served by the same goroutine.
type Runtime struct {
	cfg     Config
	tick    Tick
	kick    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	log     Logger
}

// New creates a runtime that is not yet running.
func New(cfg Config, tick Tick) *Runtime {
	lg := cfg.Logger
	if lg == nil {
		lg = noopLogger{}
	}
	if cfg.Name == "" {
		cfg.Name = "runtime"
	}
	return &Runtime{
		cfg:  cfg,
		tick: tick,
		kick: make(chan struct{}, 1),
		log:  lg,
	}
}

// Start launches the loop goroutine. It is idempotent.
func (rt *Runtime) Start(parent context.Context) {
	rt.mu.Lock()
	if rt.started {
		rt.log.Warnf("%s already started; ignoring Start()", rt.cfg.Name)
		rt.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	rt.started = true
	rt.cancel = cancel
	rt.mu.Unlock()
	rt.log.Infof("%s starting: interval=%s", rt.cfg.Name, rt.cfg.Interval)

	interval := rt.cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rt.run(ctx)
			case <-rt.kick:
				rt.run(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current pass, if any, to return.
func (rt *Runtime) Stop() {
	rt.mu.Lock()
	if !rt.started {
		rt.log.Warnf("%s not started; ignoring Stop()", rt.cfg.Name)
		rt.mu.Unlock()
		return
	}
	rt.started = false
	cancel := rt.cancel
	rt.cancel = nil
	rt.mu.Unlock()
	rt.log.Infof("%s stopping", rt.cfg.Name)

	cancel()
	rt.wg.Wait()
}

// Kick requests an out-of-band pass without waiting for the next tick.
// It reports false when the runtime is stopped or a kick is already pending.
func (rt *Runtime) Kick() bool {
	rt.mu.Lock()
	started := rt.started
	rt.mu.Unlock()
	if !started {
		return false
	}
	select {
	case rt.kick <- struct{}{}:
		return true
	default:
		return false
	}
}

// Running reports whether Start has been called without a matching Stop.
func (rt *Runtime) Running() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.started
}

func (rt *Runtime) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			rt.log.Errorf("%s: pass panicked: %v", rt.cfg.Name, r)
		}
	}()
	rt.tick(ctx)
}
