package backupq

import (
	"context"
	"sync"
	"time"

	"github.com/UniQw/backupq/internal/netwatch"
)

// Observer receives connectivity transitions. *Queue implements it.
type Observer interface {
	OnOnline()
	OnOffline()
}

// Connectivity is the host's online/offline signal.
type Connectivity interface {
	// Online reports the current state.
	Online() bool
	// Subscribe registers o for transitions until cancel is called.
	Subscribe(o Observer) (cancel func())
}

// ManualConnectivity is driven by the host application through SetOnline,
// typically from its own network-change events.
type ManualConnectivity struct {
	mu     sync.Mutex
	online bool
	subs   map[int]Observer
	nextID int
}

// NewManualConnectivity returns a source starting in the given state.
func NewManualConnectivity(online bool) *ManualConnectivity {
	return &ManualConnectivity{online: online, subs: make(map[int]Observer)}
}

// Online reports the current state.
func (m *ManualConnectivity) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers o for transitions.
func (m *ManualConnectivity) Subscribe(o Observer) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = o
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// SetOnline changes the state and notifies subscribers when it flips.
func (m *ManualConnectivity) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]Observer, 0, len(m.subs))
	for _, o := range m.subs {
		subs = append(subs, o)
	}
	m.mu.Unlock()

	for _, o := range subs {
		if online {
			o.OnOnline()
		} else {
			o.OnOffline()
		}
	}
}

// ProbeConnectivity derives the online state by polling an HTTP URL.
type ProbeConnectivity struct {
	p *netwatch.Prober
}

// NewProbeConnectivity polls url with HEAD every interval. Call Start to begin probing.
func NewProbeConnectivity(url string, interval time.Duration, log Logger) *ProbeConnectivity {
	if log == nil {
		log = NopLogger{}
	}
	return &ProbeConnectivity{p: netwatch.New(netwatch.Config{URL: url, Interval: interval, Logger: log})}
}

// Online reports the last probe result.
func (c *ProbeConnectivity) Online() bool { return c.p.Online() }

// Subscribe registers o for transitions.
func (c *ProbeConnectivity) Subscribe(o Observer) (cancel func()) {
	return c.p.Subscribe(o.OnOnline, o.OnOffline)
}

// Start begins probing in the background.
func (c *ProbeConnectivity) Start(ctx context.Context) { c.p.Start(ctx) }

// Stop halts probing.
func (c *ProbeConnectivity) Stop() { c.p.Stop() }

// Probe runs one check immediately.
func (c *ProbeConnectivity) Probe(ctx context.Context) bool { return c.p.Probe(ctx) }
