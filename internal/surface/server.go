package surface

import (
	"context"
	_ "embed"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/internal/api/recovery"
	"github.com/VelixarAi/velixar-client/internal/api/respond"
	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/index"
	"github.com/VelixarAi/velixar-client/internal/search"
	"github.com/VelixarAi/velixar-client/internal/view"
)

//go:embed static/panel.html
var panelHTML []byte

const (
	writeWait  = 10 * time.Second
	outboxSize = 32
)

// Actions performs the per-result actions the panel requests.
type Actions interface {
	CopyContent(ctx context.Context, text string) error
	InsertContent(ctx context.Context, text string) error
	OpenContent(ctx context.Context, text string) error
}

// Deps wires the panel server.
type Deps struct {
	Searcher search.Searcher
	Actions  Actions
	// Optional read models for the tree and status endpoints.
	Tree    func() index.View
	Status  func() health.Snapshot
	Refresh func(ctx context.Context) error

	SessionOptions []search.Option
	Logger         zerolog.Logger
}

// Server serves the search panel, its websocket and metrics.
type Server struct {
	deps     Deps
	log      zerolog.Logger
	upgrader websocket.Upgrader
	router   *mux.Router

	// closing is set once shutdown starts; after that no socket joins wg.
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// acquire registers a panel socket unless the server is shutting down.
func (s *Server) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// drain refuses new sockets and waits for the open ones to finish.
func (s *Server) drain() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.wg.Wait()
}

// NewServer builds the routes.
func NewServer(d Deps) *Server {
	s := &Server{deps: d, log: d.Logger}
	s.router = mux.NewRouter()
	s.router.Use(recovery.New(s.log))
	s.router.HandleFunc("/", s.handlePanel).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tree", s.handleTree).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and waits for open panels to close.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("panel server starting")
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down panel server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		s.drain()
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Server) handlePanel(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; connect-src 'self'")
	_, _ = w.Write(panelHTML)
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Tree == nil {
		respond.WriteNotFound(w, "tree view not configured")
		return
	}
	respond.WriteJSON(w, http.StatusOK, view.Tree(s.deps.Tree()))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Status == nil {
		respond.WriteNotFound(w, "status view not configured")
		return
	}
	respond.WriteJSON(w, http.StatusOK, view.StatusRows(s.deps.Status()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresh == nil {
		respond.WriteNotFound(w, "refresh not configured")
		return
	}
	if err := s.deps.Refresh(r.Context()); err != nil {
		respond.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
