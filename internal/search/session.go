// Package search implements the interactive, debounced search session that
// backs the search panel.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/client"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultLimit    = 20
	// MinQueryRunes is the shortest trimmed query that is sent to the API.
	MinQueryRunes = 2

	PlaceholderTypeToSearch = "Type to search your memories"
	PlaceholderNoResults    = "No results"
)

var staleResponses = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "velixar",
	Name:      "search_stale_responses_total",
	Help:      "Search responses discarded because a newer query superseded them.",
})

// Searcher is the slice of the gateway the session needs.
type Searcher interface {
	SearchMemories(ctx context.Context, query string, limit int) (*client.MemoriesResponse, error)
}

// Phase is the session state.
type Phase int

const (
	Idle Phase = iota
	Debouncing
	InFlight
	Rendered
	Errored
)

func (p Phase) String() string {
	switch p {
	case Debouncing:
		return "debouncing"
	case InFlight:
		return "in_flight"
	case Rendered:
		return "rendered"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// UpdateKind tags an Update.
type UpdateKind int

const (
	UpdateResults UpdateKind = iota
	UpdateError
	UpdatePlaceholder
)

// Update is what the session asks the surface to show. Exactly one of
// Memories/Count (results) or Message (error, placeholder) is meaningful.
type Update struct {
	Kind     UpdateKind
	Memories []client.Memory
	Count    int
	Message  string
}

// State is a copy of the session state, for inspection.
type State struct {
	Query         string
	Phase         Phase
	PendingToken  uint64
	RenderedToken uint64
	Results       []client.Memory
	Err           string
}

// Timer is the subset of *time.Timer the session uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once adapted.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Session is one search panel's state machine. All state is owned by the
// goroutine running Run; other methods communicate with it over a channel.
type Session struct {
	searcher Searcher
	emit     func(Update)
	limit    int
	debounce time.Duration
	after    AfterFunc
	log      zerolog.Logger

	events    chan func(*loopState)
	done      chan struct{}
	closeOnce sync.Once
}

// loopState is only touched from Run.
type loopState struct {
	State
	timer    Timer
	timerSeq uint64
	ctx      context.Context
}

// Option configures a Session.
type Option func(*Session)

// WithLimit sets the result page size.
func WithLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithDebounce sets the quiet period before a query is sent.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Session) { s.after = f }
}

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns a session that sends its output to emit. emit is
// called from the session goroutine, in order, and must not call back into
// the session.
func NewSession(searcher Searcher, emit func(Update), opts ...Option) *Session {
	s := &Session{
		searcher: searcher,
		emit:     emit,
		limit:    DefaultLimit,
		debounce: DefaultDebounce,
		after:    realAfterFunc,
		log:      zerolog.Nop(),
		events:   make(chan func(*loopState), 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes events until ctx is done or Close is called.
func (s *Session) Run(ctx context.Context) {
	st := &loopState{ctx: ctx}
	defer func() {
		if st.timer != nil {
			st.timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case ev := <-s.events:
			ev(st)
		}
	}
}

// Close stops the session. Pending timers never fire afterwards.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// post hands ev to the loop. It reports false once the session is closed.
func (s *Session) post(ev func(*loopState)) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Input records the latest query text and restarts the debounce window.
func (s *Session) Input(query string) {
	s.post(func(st *loopState) { s.onInput(st, query) })
}

// State returns a snapshot of the session state.
func (s *Session) State() (State, bool) {
	ch := make(chan State, 1)
	if !s.post(func(st *loopState) {
		cp := st.State
		cp.Results = append([]client.Memory(nil), st.Results...)
		ch <- cp
	}) {
		return State{}, false
	}
	select {
	case v := <-ch:
		return v, true
	case <-s.done:
		return State{}, false
	}
}

// Resolve returns the full memory with id from the rendered results.
func (s *Session) Resolve(id string) (client.Memory, bool) {
	type found struct {
		m  client.Memory
		ok bool
	}
	ch := make(chan found, 1)
	if !s.post(func(st *loopState) {
		for _, m := range st.Results {
			if m.ID == id {
				ch <- found{m, true}
				return
			}
		}
		ch <- found{}
	}) {
		return client.Memory{}, false
	}
	select {
	case f := <-ch:
		return f.m, f.ok
	case <-s.done:
		return client.Memory{}, false
	}
}

func (s *Session) onInput(st *loopState, query string) {
	st.Query = query
	st.Phase = Debouncing
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timerSeq++
	seq := st.timerSeq
	st.timer = s.after(s.debounce, func() {
		s.post(func(st *loopState) { s.onSettled(st, seq) })
	})
}

func (s *Session) onSettled(st *loopState, seq uint64) {
	if seq != st.timerSeq {
		return
	}
	st.timer = nil
	query := strings.TrimSpace(st.Query)

	// Every settled input supersedes whatever is in flight.
	st.PendingToken++
	token := st.PendingToken

	if utf8.RuneCountInString(query) < MinQueryRunes {
		st.Phase = Idle
		st.Results = nil
		st.Err = ""
		s.emit(Update{Kind: UpdatePlaceholder, Message: PlaceholderTypeToSearch})
		return
	}

	st.Phase = InFlight
	ctx := st.ctx
	go func() {
		res, err := s.searcher.SearchMemories(ctx, query, s.limit)
		s.post(func(st *loopState) { s.onResponse(st, token, query, res, err) })
	}()
}

func (s *Session) onResponse(st *loopState, token uint64, query string, res *client.MemoriesResponse, err error) {
	if token != st.PendingToken {
		staleResponses.Inc()
		s.log.Debug().Uint64("token", token).Uint64("latest", st.PendingToken).Str("query", query).Msg("discarding superseded search response")
		return
	}
	st.RenderedToken = token
	// A response can land while the next input is still debouncing.
	debouncing := st.timer != nil
	if err != nil {
		st.Phase = Errored
		st.Results = nil
		st.Err = err.Error()
		if debouncing {
			st.Phase = Debouncing
		}
		s.emit(Update{Kind: UpdateError, Message: st.Err})
		return
	}
	st.Phase = Rendered
	st.Err = ""
	st.Results = res.Memories
	if debouncing {
		st.Phase = Debouncing
	}
	if len(res.Memories) == 0 {
		s.emit(Update{Kind: UpdatePlaceholder, Message: PlaceholderNoResults})
		return
	}
	s.emit(Update{Kind: UpdateResults, Memories: res.Memories, Count: res.Count})
}
