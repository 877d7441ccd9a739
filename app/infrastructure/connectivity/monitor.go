// Package connectivity tracks the link to the backend by polling a prober and
// turns the raw signal into de-duplicated transition events.
package connectivity

import (
	"context"
	"sync"
	"time"

	"shelfsync.io/shelfsync/app/utils/logger"
)

const probeTimeout = 3 * time.Second

// Prober answers a point-in-time reachability check. The product API client's
// health ping is the usual implementation.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor polls the prober and notifies subscribers on transitions. The
// underlying signal may report the same state repeatedly; subscribers receive
// exactly one callback per transition.
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu      sync.Mutex
	online  bool
	subs    map[int]func(bool)
	nextID  int
	started bool
	stop    chan struct{}
}

func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		subs:     map[int]func(bool){},
		stop:     make(chan struct{}),
	}
}

// Start probes once immediately and then keeps polling until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	m.CheckNow(ctx)
	go m.loop(ctx, stop)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.started = false
	close(m.stop)
}

func (m *Monitor) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow probes immediately, updates the observed state and returns it.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	online := m.prober.Ping(probeCtx) == nil
	m.setOnline(online)
	return online
}

// IsOnline returns the last observed state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a transition callback and returns its unsubscribe
// function. Redundant platform events are already collapsed: the callback
// fires only when the observed state actually changes.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	logger.GetLogger().WithField("online", online).Info("connectivity changed")
	for _, fn := range subs {
		fn(online)
	}
}
