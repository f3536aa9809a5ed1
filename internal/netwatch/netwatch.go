// Package netwatch derives an online/offline signal by probing an HTTP URL.
// Any HTTP response counts as online; transport errors count as offline.
package netwatch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/UniQw/backupq/internal/runtime"
)

type Config struct {
	// URL is requested with HEAD on every probe.
	URL string
	// Interval between probes. Defaults to 15s.
	Interval time.Duration
	// Timeout bounds a single probe. Defaults to 5s.
	Timeout time.Duration
	// Client overrides the HTTP client used for probing.
	Client *http.Client
	Logger runtime.Logger
}

type listener struct {
	onOnline  func()
	onOffline func()
}

// Prober polls Config.URL and notifies subscribers on transitions.
type Prober struct {
	cfg    Config
	client *http.Client
	rt     *runtime.Runtime
	log    runtime.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]listener
	nextID int
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// New creates a prober that assumes the host is online until a probe fails.
func New(cfg Config) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	lg := cfg.Logger
	if lg == nil {
		lg = noopLogger{}
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	p := &Prober{
		cfg:    cfg,
		client: client,
		log:    lg,
		online: true,
		subs:   make(map[int]listener),
	}
	p.rt = runtime.New(runtime.Config{Interval: cfg.Interval, Name: "netwatch", Logger: lg}, func(ctx context.Context) {
		p.Probe(ctx)
	})
	return p
}

// Online reports the last observed state.
func (p *Prober) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe registers transition callbacks. Either may be nil.
func (p *Prober) Subscribe(onOnline, onOffline func()) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = listener{onOnline: onOnline, onOffline: onOffline}
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Start probes immediately and then on every interval.
func (p *Prober) Start(ctx context.Context) {
	p.rt.Start(ctx)
	p.rt.Kick()
}

// Stop halts probing.
func (p *Prober) Stop() { p.rt.Stop() }

// Probe performs one check, records the result and notifies subscribers if
// the state changed. It returns the observed state.
func (p *Prober) Probe(ctx context.Context) bool {
	up := p.reachable(ctx)
	p.set(up)
	return up
}

func (p *Prober) reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.cfg.URL, http.NoBody)
	if err != nil {
		p.log.Warnf("netwatch: bad probe url=%s err=%v", p.cfg.URL, err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debugf("netwatch: probe failed url=%s err=%v", p.cfg.URL, err)
		return false
	}
	resp.Body.Close()
	return true
}

func (p *Prober) set(up bool) {
	p.mu.Lock()
	if p.online == up {
		p.mu.Unlock()
		return
	}
	p.online = up
	subs := make([]listener, 0, len(p.subs))
	for _, l := range p.subs {
		subs = append(subs, l)
	}
	p.mu.Unlock()

	if up {
		p.log.Infof("netwatch: online url=%s", p.cfg.URL)
	} else {
		p.log.Warnf("netwatch: offline url=%s", p.cfg.URL)
	}
	for _, l := range subs {
		if up && l.onOnline != nil {
			l.onOnline()
		}
		if !up && l.onOffline != nil {
			l.onOffline()
		}
	}
}
