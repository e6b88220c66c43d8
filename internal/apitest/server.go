// Package apitest runs an in-memory backend that speaks the todo REST
// contract, for tests and local demos.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/idilsaglam/todosync/internal/model"
)

// Route names used for fault injection and call counting.
const (
	RouteList   = "list"
	RouteGet    = "get"
	RouteCreate = "create"
	RouteUpdate = "update"
	RouteDelete = "delete"
	RouteToggle = "toggle"
)

// Options tune the fake.
type Options struct {
	// AllowedOrigins enables the CORS policy. Empty means no CORS headers.
	AllowedOrigins []string
	// Latency delays every response.
	Latency time.Duration
	// Now stamps created_at/updated_at; defaults to time.Now.
	Now func() time.Time
}

type fault struct {
	status int
	detail string
}

// Server is the fake backend. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	opts    Options
	nextID  int64
	todos   map[int64]model.TodoItem
	faults  map[string]fault
	calls   map[string]int
	queries []string
}

// NewServer starts a fake backend; callers Close it.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:   opts,
		nextID: 1,
		todos:  map[int64]model.TodoItem{},
		faults: map[string]fault{},
		calls:  map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// URL of the API root, to be used as the client base URL.
func (s *Server) APIURL() string { return s.Server.URL + "/api" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(s.delay)
	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", s.handle(RouteList, s.list))
		r.Post("/", s.handle(RouteCreate, s.create))
		r.Get("/{id}", s.handle(RouteGet, s.get))
		r.Put("/{id}", s.handle(RouteUpdate, s.update))
		r.Delete("/{id}", s.handle(RouteDelete, s.delete))
		r.Patch("/{id}/complete", s.handle(RouteToggle, s.toggle))
	})
	return r
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// handle counts the call and applies an injected fault before h runs.
func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		if route == RouteList {
			s.queries = append(s.queries, r.URL.RawQuery)
		}
		f, faulty := s.faults[route]
		s.mu.Unlock()
		if faulty {
			writeError(w, f.status, f.detail)
			return
		}
		h(w, r)
	}
}

// Fail makes every call to route answer with status and detail until
// Recover is called.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = fault{status: status, detail: detail}
}

// Recover clears an injected fault.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, route)
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastQuery returns the raw query string of the latest list request.
func (s *Server) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

// Seed inserts items as if they had been created, returning them with ids.
func (s *Server) Seed(descriptions ...string) []model.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TodoItem, 0, len(descriptions))
	for _, d := range descriptions {
		out = append(out, s.insertLocked(model.CreateInput{Description: d}))
	}
	return out
}

// Remove deletes an item behind the client's back.
func (s *Server) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.todos, id)
}

// Items returns the stored items newest first.
func (s *Server) Items() []model.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Server) insertLocked(in model.CreateInput) model.TodoItem {
	now := model.NewTimestamp(s.opts.Now().UTC())
	it := model.TodoItem{
		ID:          s.nextID,
		Description: in.Description,
		Priority:    in.Priority.OrDefault(),
		DueDate:     in.DueDate,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.todos[it.ID] = it
	return it
}

func (s *Server) sortedLocked() []model.TodoItem {
	out := make([]model.TodoItem, 0, len(s.todos))
	for _, it := range s.todos {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	items := s.sortedLocked()
	s.mu.Unlock()

	out := make([]model.TodoItem, 0, len(items))
	for _, it := range items {
		if v := q.Get("completed"); v != "" {
			want, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "completed must be a boolean")
				return
			}
			if it.Completed != want {
				continue
			}
		}
		if v := q.Get("priority"); v != "" && !strings.EqualFold(string(it.Priority), v) {
			continue
		}
		if v := q.Get("category"); v != "" && it.CategoryOrEmpty() != v {
			continue
		}
		out = append(out, it)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	it, found := s.todos[id]
	s.mu.Unlock()
	if !found {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in model.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	in, err := model.NormalizeCreate(in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	it := s.insertLocked(in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch model.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	patch, err := model.NormalizeUpdate(patch)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	it, found := s.todos[id]
	if found {
		patch.ApplyTo(&it)
		it.UpdatedAt = s.bumpLocked(it)
		s.todos[id] = it
	}
	s.mu.Unlock()
	if !found {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.todos[id]
	delete(s.todos, id)
	s.mu.Unlock()
	if !found {
		writeNotFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	it, found := s.todos[id]
	if found {
		it.Completed = !it.Completed
		it.UpdatedAt = s.bumpLocked(it)
		s.todos[id] = it
	}
	s.mu.Unlock()
	if !found {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// bumpLocked keeps updated_at monotonic even with a frozen clock.
func (s *Server) bumpLocked(it model.TodoItem) model.Timestamp {
	now := s.opts.Now().UTC()
	if !now.After(it.UpdatedAt.Time) {
		now = it.UpdatedAt.Add(time.Millisecond)
	}
	return model.NewTimestamp(now)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter, id int64) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("TODO item with id %d not found", id))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
