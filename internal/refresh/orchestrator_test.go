package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/index"
	"github.com/VelixarAi/velixar-client/internal/memoryapitest"
)

type countingIndex struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingIndex) Refresh(context.Context) error {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.err
}

type countingHealth struct{ calls atomic.Int32 }

func (c *countingHealth) Refresh(context.Context) { c.calls.Add(1) }

func TestRefreshAll_RunsBothAndNotifies(t *testing.T) {
	ix, h := &countingIndex{}, &countingHealth{}
	o := New(ix, h, time.Hour, zerolog.Nop())
	var results []Result
	o.Subscribe(func(r Result) { results = append(results, r) })

	require.NoError(t, o.RefreshAll(context.Background()))
	require.NoError(t, o.Trigger(context.Background(), ReasonStore))

	assert.Equal(t, int32(2), ix.calls.Load())
	assert.Equal(t, int32(2), h.calls.Load())
	require.Len(t, results, 2)
	assert.Equal(t, Result{Generation: 1, Reason: ReasonManual}, results[0])
	assert.Equal(t, Result{Generation: 2, Reason: ReasonStore}, results[1])
}

func TestTrigger_ForwardsIndexError(t *testing.T) {
	boom := errors.New("boom")
	o := New(&countingIndex{err: boom}, &countingHealth{}, time.Hour, zerolog.Nop())
	require.ErrorIs(t, o.Trigger(context.Background(), ReasonDelete), boom)
}

func TestRefreshAll_OverlappingCallsAreNotSerialized(t *testing.T) {
	ix := &countingIndex{block: make(chan struct{})}
	o := New(ix, &countingHealth{}, time.Hour, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = o.RefreshAll(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return ix.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(ix.block)
	wg.Wait()
}

func TestStart_ImmediateActivationThenInterval(t *testing.T) {
	ix, h := &countingIndex{}, &countingHealth{}
	o := New(ix, h, 20*time.Millisecond, zerolog.Nop())

	var mu sync.Mutex
	var reasons []Reason
	o.Subscribe(func(r Result) {
		mu.Lock()
		reasons = append(reasons, r.Reason)
		mu.Unlock()
	})

	o.Start(context.Background())
	require.Eventually(t, func() bool { return ix.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	o.Stop()

	mu.Lock()
	assert.Equal(t, ReasonActivation, reasons[0])
	assert.Equal(t, ReasonInterval, reasons[1])
	mu.Unlock()

	after := ix.calls.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, after, ix.calls.Load(), "no periodic work after Stop")
}

func TestStop_Idempotent(t *testing.T) {
	o := New(&countingIndex{}, &countingHealth{}, time.Hour, zerolog.Nop())
	o.Stop()
	o.Start(context.Background())
	o.Start(context.Background())
	o.Stop()
	o.Stop()
}

func TestBackgroundRefreshDoesNotReport(t *testing.T) {
	fake := memoryapitest.New("vlx_k")
	fake.FailWith(500, "down")
	srv := fake.Start()
	defer srv.Close()
	c, err := client.New(srv.URL, client.StaticKey("vlx_k"))
	require.NoError(t, err)

	var reported atomic.Int32
	ix := index.New(c, index.WithErrorReporter(func(error) { reported.Add(1) }))
	mon := health.NewMonitor(c, zerolog.Nop())
	o := New(ix, mon, time.Hour, zerolog.Nop())

	done := make(chan Result, 1)
	o.Subscribe(func(r Result) { done <- r })
	o.Start(context.Background())
	r := <-done
	o.Stop()

	require.Error(t, r.IndexErr)
	assert.Zero(t, reported.Load())
	assert.True(t, mon.Snapshot().APIReachable)

	require.Error(t, o.RefreshAll(context.Background()))
	assert.Equal(t, int32(1), reported.Load(), "user-triggered refresh reports")
}
