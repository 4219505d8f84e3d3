// Package health tracks the reachability of the memory API and its backing
// stores.
package health

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/client"
)

// Status is the tri-state health of a backing store.
type Status int

const (
	Unknown Status = iota
	Up
	Down
)

func (s Status) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

func statusOf(ok bool) Status {
	if ok {
		return Up
	}
	return Down
}

// Snapshot is the result of one health refresh.
type Snapshot struct {
	APIReachable      bool
	VectorStore       Status
	CacheStore        Status
	CredentialPresent bool
}

// Prober is the slice of the gateway the monitor needs.
type Prober interface {
	Health(ctx context.Context) (*client.HealthResponse, error)
	HasCredential(ctx context.Context) bool
}

// Monitor caches the latest Snapshot.
type Monitor struct {
	prober Prober
	log    zerolog.Logger
	snap   atomic.Pointer[Snapshot]

	mu      sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
	prevUp  atomic.Int32 // -1 unset, 0 down, 1 up
}

// NewMonitor returns a Monitor whose initial snapshot is all Unknown.
func NewMonitor(prober Prober, log zerolog.Logger) *Monitor {
	m := &Monitor{prober: prober, log: log, subs: make(map[int]func(Snapshot))}
	m.snap.Store(&Snapshot{})
	m.prevUp.Store(-1)
	return m
}

// Snapshot returns the last committed snapshot.
func (m *Monitor) Snapshot() Snapshot { return *m.snap.Load() }

// Refresh recomputes the snapshot. Failures are logged, never returned:
// an unreachable API yields APIReachable=false with both stores Unknown.
func (m *Monitor) Refresh(ctx context.Context) {
	next := Snapshot{CredentialPresent: m.prober.HasCredential(ctx)}

	res, err := m.prober.Health(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("health probe failed")
	} else {
		next.APIReachable = res.Healthy()
		next.VectorStore = statusOf(res.Qdrant)
		next.CacheStore = statusOf(res.Redis)
	}

	m.snap.Store(&next)
	m.logTransition(next.APIReachable)

	m.mu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}

// Subscribe registers fn to run after every refresh.
func (m *Monitor) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) logTransition(up bool) {
	cur := int32(0)
	if up {
		cur = 1
	}
	if m.prevUp.Swap(cur) == cur {
		return
	}
	if up {
		m.log.Info().Msg("memory api health: UP")
	} else {
		m.log.Warn().Msg("memory api health: DOWN")
	}
}
