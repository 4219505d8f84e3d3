// Package index keeps a locally cached, tier-grouped view of the memory list.
package index

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/client"
)

const (
	// DefaultPageSize is how many memories a refresh asks for.
	DefaultPageSize = 100
	// DefaultGroupingTier is used for memories whose tier the server omitted.
	DefaultGroupingTier = client.TierSemantic
)

// Lister is the slice of the gateway the index needs.
type Lister interface {
	ListMemories(ctx context.Context, limit int) (*client.MemoriesResponse, error)
}

// ErrorReporter surfaces a refresh failure to the user.
type ErrorReporter func(err error)

// TierGroup is one tier and its memories in server order.
type TierGroup struct {
	Tier     client.Tier
	Memories []client.Memory
}

// View is an immutable grouping snapshot. Empty is set when there is
// nothing to show, including after a failed refresh.
type View struct {
	Empty  bool
	Groups []TierGroup
}

// Len returns the number of memories across all groups.
func (v View) Len() int {
	n := 0
	for _, g := range v.Groups {
		n += len(g.Memories)
	}
	return n
}

// Find returns the memory with id from the snapshot.
func (v View) Find(id string) (client.Memory, bool) {
	for _, g := range v.Groups {
		for _, m := range g.Memories {
			if m.ID == id {
				return m, true
			}
		}
	}
	return client.Memory{}, false
}

var emptyView = &View{Empty: true}

// Group partitions memories by tier. Every memory lands in exactly one
// group, per-tier order follows the input and groups ascend by tier.
func Group(memories []client.Memory, defaultTier client.Tier) View {
	if len(memories) == 0 {
		return View{Empty: true}
	}
	byTier := make(map[client.Tier][]client.Memory)
	for _, m := range memories {
		t := m.TierOr(defaultTier)
		byTier[t] = append(byTier[t], m)
	}
	groups := make([]TierGroup, 0, len(byTier))
	for t, ms := range byTier {
		groups = append(groups, TierGroup{Tier: t, Memories: ms})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Tier < groups[j].Tier })
	return View{Groups: groups}
}

// Index caches the grouped memory list. Readers never observe a partially
// built snapshot.
type Index struct {
	lister      Lister
	pageSize    int
	defaultTier client.Tier
	report      ErrorReporter
	log         zerolog.Logger

	snap atomic.Pointer[View]

	mu      sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Option configures an Index.
type Option func(*Index)

// WithPageSize overrides the list page size.
func WithPageSize(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.pageSize = n
		}
	}
}

// WithDefaultTier sets the tier for memories without one.
func WithDefaultTier(t client.Tier) Option {
	return func(ix *Index) { ix.defaultTier = t }
}

// WithErrorReporter installs the user-facing failure sink.
func WithErrorReporter(r ErrorReporter) Option {
	return func(ix *Index) { ix.report = r }
}

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ix *Index) { ix.log = l }
}

// New returns an empty Index backed by lister.
func New(lister Lister, opts ...Option) *Index {
	ix := &Index{
		lister:      lister,
		pageSize:    DefaultPageSize,
		defaultTier: DefaultGroupingTier,
		log:         zerolog.Nop(),
		subs:        make(map[int]func()),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.snap.Store(emptyView)
	return ix
}

// Groups returns the current snapshot.
func (ix *Index) Groups() View { return *ix.snap.Load() }

// Refresh lists memories and replaces the snapshot. On failure the snapshot
// is reset to empty. A missing API key is an expected state and is neither
// returned nor reported.
func (ix *Index) Refresh(ctx context.Context) error {
	res, err := ix.lister.ListMemories(ctx, ix.pageSize)
	if err != nil {
		ix.commit(emptyView)
		if client.IsUnauthenticated(err) {
			ix.log.Debug().Msg("memory list skipped: no api key")
			return nil
		}
		ix.log.Warn().Err(err).Str("category", client.Classify(err).String()).Msg("memory list failed")
		if ix.report != nil && !isQuiet(ctx) {
			ix.report(err)
		}
		return err
	}

	v := Group(res.Memories, ix.defaultTier)
	ix.commit(&v)
	ix.log.Debug().Int("memories", len(res.Memories)).Int("count", res.Count).Int("groups", len(v.Groups)).Msg("memory index refreshed")
	return nil
}

// Subscribe registers fn to run after every snapshot replacement. The
// returned func removes the subscription.
func (ix *Index) Subscribe(fn func()) (unsubscribe func()) {
	ix.mu.Lock()
	id := ix.nextSub
	ix.nextSub++
	ix.subs[id] = fn
	ix.mu.Unlock()
	return func() {
		ix.mu.Lock()
		delete(ix.subs, id)
		ix.mu.Unlock()
	}
}

func (ix *Index) commit(v *View) {
	ix.snap.Store(v)
	ix.mu.Lock()
	fns := make([]func(), 0, len(ix.subs))
	for _, fn := range ix.subs {
		fns = append(fns, fn)
	}
	ix.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type quietKey struct{}

// Quiet marks ctx so that a failing Refresh returns its error without
// passing it to the ErrorReporter. Background refreshes use it.
func Quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

func isQuiet(ctx context.Context) bool {
	q, _ := ctx.Value(quietKey{}).(bool)
	return q
}
