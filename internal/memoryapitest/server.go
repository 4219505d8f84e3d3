// Package memoryapitest provides an in-memory implementation of the Velixar
// memory API for tests and local development.
package memoryapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/api/recovery"
	"github.com/VelixarAi/velixar-client/internal/api/respond"
	"github.com/VelixarAi/velixar-client/pkg/devauth"
)

// Health is the payload served by GET /health.
type Health = client.HealthResponse

// Request records one call received by the fake.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

// Server is a fake memory API. The zero value is not usable; use New.
type Server struct {
	mu       sync.Mutex
	apiKey   string
	memories []client.Memory // insertion order, newest last
	health   Health
	failure  *failure
	requests []Request
}

type failure struct {
	status int
	body   string
}

// New returns a fake that accepts apiKey ("" selects devauth.APIKey) and
// reports a healthy backend.
func New(apiKey string) *Server {
	if apiKey == "" {
		apiKey = devauth.APIKey
	}
	return &Server{
		apiKey: apiKey,
		health: Health{Status: "healthy", Qdrant: true, Redis: true},
	}
}

// Start serves the fake on an httptest server. Callers must Close it.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Router())
}

// Router returns the HTTP routes of the fake API.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.record, recovery.New(log.Logger))

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	authed := router.NewRoute().Subrouter()
	authed.Use(s.requireKey, s.injectFailure)
	authed.HandleFunc("/memory", s.handleStore).Methods(http.MethodPost)
	authed.HandleFunc("/memory/search", s.handleSearch).Methods(http.MethodGet)
	authed.HandleFunc("/memory/list", s.handleList).Methods(http.MethodGet)
	authed.HandleFunc("/memory/{id}", s.handleGet).Methods(http.MethodGet)
	authed.HandleFunc("/memory/{id}", s.handleDelete).Methods(http.MethodDelete)
	authed.HandleFunc("/memory/{id}", s.handleUpdate).Methods(http.MethodPatch)
	return router
}

// SetHealth replaces the health payload.
func (s *Server) SetHealth(h Health) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()
}

// FailWith makes every authenticated endpoint answer status/body until
// cleared with FailWith(0, "").
func (s *Server) FailWith(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		s.failure = nil
		return
	}
	s.failure = &failure{status: status, body: body}
}

// Seed appends memories as if they had been stored.
func (s *Server) Seed(mems ...client.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range mems {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		s.memories = append(s.memories, m)
	}
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests returns how many recorded requests hit path.
func (s *Server) CountRequests(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			respond.WriteText(w, http.StatusUnauthorized, `{"error":"invalid api key"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.failure
		s.mu.Unlock()
		if f != nil {
			respond.WriteText(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	h := s.health
	s.mu.Unlock()
	respond.WriteJSON(w, http.StatusOK, h)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req client.StoreMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteText(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respond.WriteText(w, http.StatusBadRequest, "content is required")
		return
	}
	now := time.Now().UTC()
	mem := client.Memory{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Tier:      req.Tier,
		Tags:      req.Tags,
		CreatedAt: client.Timestamp{Time: now},
	}
	s.mu.Lock()
	s.memories = append(s.memories, mem)
	s.mu.Unlock()
	respond.WriteJSON(w, http.StatusCreated, client.StoreMemoryResponse{ID: mem.ID})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	s.mu.Lock()
	all := make([]client.Memory, 0, len(s.memories))
	for i := len(s.memories) - 1; i >= 0; i-- {
		all = append(all, s.memories[i])
	}
	s.mu.Unlock()
	respond.WriteJSON(w, http.StatusOK, client.MemoriesResponse{Memories: capAt(all, limit), Count: len(all)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	limit := parseLimit(r, 10)
	terms := strings.Fields(query)

	s.mu.Lock()
	var hits []client.Memory
	for _, m := range s.memories {
		score := scoreOf(strings.ToLower(m.Content), terms)
		if score == 0 {
			continue
		}
		m.Score = &score
		hits = append(hits, m)
	}
	s.mu.Unlock()

	sort.SliceStable(hits, func(i, j int) bool { return *hits[i].Score > *hits[j].Score })
	respond.WriteJSON(w, http.StatusOK, client.MemoriesResponse{Memories: capAt(hits, limit), Count: len(hits)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		respond.WriteJSON(w, http.StatusOK, s.memories[i])
		return
	}
	respond.WriteText(w, http.StatusNotFound, "memory not found")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		respond.WriteText(w, http.StatusNotFound, "memory not found")
		return
	}
	s.memories = append(s.memories[:i], s.memories[i+1:]...)
	respond.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req client.UpdateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respond.WriteText(w, http.StatusBadRequest, "content is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		respond.WriteText(w, http.StatusNotFound, "memory not found")
		return
	}
	s.memories[i].Content = req.Content
	respond.WriteJSON(w, http.StatusOK, map[string]string{"updated": id})
}

func (s *Server) indexOf(id string) int {
	for i, m := range s.memories {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// scoreOf is the fraction of query terms contained in content.
func scoreOf(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, t := range terms {
		if strings.Contains(content, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func parseLimit(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return def
}

func capAt(mems []client.Memory, limit int) []client.Memory {
	if len(mems) > limit {
		return mems[:limit]
	}
	if mems == nil {
		return []client.Memory{}
	}
	return mems
}
