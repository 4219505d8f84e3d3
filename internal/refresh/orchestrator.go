// Package refresh coordinates the memory index and health monitor refreshes.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/internal/index"
)

// DefaultInterval is the period of the background refresh.
const DefaultInterval = 60 * time.Second

// Reason tags why a refresh ran.
type Reason string

const (
	ReasonActivation Reason = "activation"
	ReasonInterval   Reason = "interval"
	ReasonManual     Reason = "manual"
	ReasonStore      Reason = "store"
	ReasonDelete     Reason = "delete"
	ReasonUpdate     Reason = "update"
	ReasonSetKey     Reason = "set_key"
	ReasonClearKey   Reason = "clear_key"
)

var refreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "velixar",
		Name:      "refresh_total",
		Help:      "Completed refresh cycles by trigger.",
	},
	[]string{"reason"},
)

// IndexRefresher refreshes the memory index.
type IndexRefresher interface {
	Refresh(ctx context.Context) error
}

// HealthRefresher refreshes the health snapshot. It never fails.
type HealthRefresher interface {
	Refresh(ctx context.Context)
}

// Result describes one completed refresh cycle.
type Result struct {
	Generation uint64
	Reason     Reason
	IndexErr   error
}

// Orchestrator runs both refreshes together. Overlapping cycles are not
// serialized; each component commits its own snapshot atomically.
type Orchestrator struct {
	index    IndexRefresher
	health   HealthRefresher
	interval time.Duration
	log      zerolog.Logger

	gen atomic.Uint64

	mu      sync.Mutex
	subs    map[int]func(Result)
	nextSub int
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an Orchestrator. interval <= 0 selects DefaultInterval.
func New(ix IndexRefresher, h HealthRefresher, interval time.Duration, log zerolog.Logger) *Orchestrator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Orchestrator{
		index:    ix,
		health:   h,
		interval: interval,
		log:      log,
		subs:     make(map[int]func(Result)),
	}
}

// RefreshAll runs a user-requested refresh and returns the index error.
func (o *Orchestrator) RefreshAll(ctx context.Context) error {
	return o.run(ctx, ReasonManual).IndexErr
}

// Trigger refreshes after a user mutation and returns the index error.
func (o *Orchestrator) Trigger(ctx context.Context, reason Reason) error {
	return o.run(ctx, reason).IndexErr
}

func (o *Orchestrator) run(ctx context.Context, reason Reason) Result {
	var (
		wg       sync.WaitGroup
		indexErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		indexErr = o.index.Refresh(ctx)
	}()
	go func() {
		defer wg.Done()
		o.health.Refresh(ctx)
	}()
	wg.Wait()

	res := Result{Generation: o.gen.Add(1), Reason: reason, IndexErr: indexErr}
	refreshTotal.WithLabelValues(string(reason)).Inc()
	o.log.Debug().Uint64("generation", res.Generation).Str("reason", string(reason)).AnErr("index_err", indexErr).Msg("refresh complete")

	o.mu.Lock()
	fns := make([]func(Result), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(res)
	}
	return res
}

// Subscribe registers fn to run after every completed cycle.
func (o *Orchestrator) Subscribe(fn func(Result)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Start launches the periodic loop. The first cycle runs immediately with
// ReasonActivation. Calling Start while running is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	go o.loop(loopCtx, o.done)
}

// Stop cancels the periodic loop and waits for it to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (o *Orchestrator) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := backoff.NewTicker(backoff.WithContext(backoff.NewConstantBackOff(o.interval), ctx))
	defer ticker.Stop()

	reason := ReasonActivation
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			res := o.run(index.Quiet(ctx), reason)
			if res.IndexErr != nil && ctx.Err() == nil {
				o.log.Warn().Err(res.IndexErr).Str("reason", string(reason)).Msg("background refresh failed")
			}
			reason = ReasonInterval
		}
	}
}
