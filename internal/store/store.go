// Package store keeps the client-side copy of the todo list in step with the
// backend and tells subscribers whenever it changes.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/idilsaglam/todosync/internal/model"
)

// API is the backend surface the store drives. *api.Client satisfies it.
type API interface {
	ListTodos(ctx context.Context, f model.Filter) ([]model.TodoItem, error)
	CreateTodo(ctx context.Context, in model.CreateInput) (model.TodoItem, error)
	UpdateTodo(ctx context.Context, id int64, patch model.UpdateInput) (model.TodoItem, error)
	DeleteTodo(ctx context.Context, id int64) error
	ToggleComplete(ctx context.Context, id int64) (model.TodoItem, error)
}

// State is a point-in-time copy of the store. Err is "" when there is no
// error to show. Pending lists ids whose tentative change awaits the server.
type State struct {
	Todos   []model.TodoItem
	Loading bool
	Err     string
	Pending []int64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for failed operations.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFilter sets the initial list query.
func WithFilter(f model.Filter) Option {
	return func(s *Store) { s.filter = f }
}

// Store is safe for concurrent use.
type Store struct {
	api API
	log *zap.Logger

	mu        sync.Mutex
	todos     []model.TodoItem
	filter    model.Filter
	inflight  int
	errMsg    string
	pending   map[int64]struct{}
	gen       uint64
	closed    bool
	listeners map[int]func(State)
	nextSub   int
}

// New builds an empty store without touching the network.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:       api,
		log:       zap.NewNop(),
		todos:     []model.TodoItem{},
		pending:   map[int64]struct{}{},
		listeners: map[int]func(State){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open builds a store and runs the initial refresh. The store is returned
// even when that refresh fails; its error is then in State.Err as well.
func Open(ctx context.Context, api API, opts ...Option) (*Store, error) {
	s := New(api, opts...)
	return s, s.Refresh(ctx)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Filter returns the current list query.
func (s *Store) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. Calls may arrive from any goroutine.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close detaches the store. Responses still in flight are discarded and
// every later operation returns model.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.listeners = map[int]func(State){}
}

// Refresh replaces the list with the server's, in server order. On failure
// the list is left as it was.
func (s *Store) Refresh(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return err
	}
	defer s.finish(gen, 0)

	if err := s.reload(ctx, gen); err != nil {
		s.record(gen, "refresh", err)
		return err
	}
	return nil
}

// SetFilter changes the list query and refreshes with it.
func (s *Store) SetFilter(ctx context.Context, f model.Filter) error {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Create validates in, posts it and puts the new item first, unless a
// refresh already brought it in, in which case that entry is replaced.
// Invalid input is rejected before any request and leaves the state alone.
func (s *Store) Create(ctx context.Context, in model.CreateInput) (model.TodoItem, error) {
	in, err := model.NormalizeCreate(in)
	if err != nil {
		return model.TodoItem{}, err
	}
	gen, err := s.begin()
	if err != nil {
		return model.TodoItem{}, err
	}
	defer s.finish(gen, 0)

	it, err := s.api.CreateTodo(ctx, in)
	if err != nil {
		s.record(gen, "create", err)
		return model.TodoItem{}, err
	}
	ok := s.apply(gen, func() {
		if i := s.indexLocked(it.ID); i >= 0 {
			s.todos[i] = it.Clone()
			return
		}
		s.todos = append([]model.TodoItem{it.Clone()}, s.todos...)
	})
	if !ok {
		return model.TodoItem{}, model.ErrClosed
	}
	return it, nil
}

// Update applies patch to item id, locally at once and then on the server.
// A not-found answer triggers a resync.
func (s *Store) Update(ctx context.Context, id int64, patch model.UpdateInput) (model.TodoItem, error) {
	patch, err := model.NormalizeUpdate(patch)
	if err != nil {
		return model.TodoItem{}, err
	}
	m, err := s.stage(id, modeEdit, patch.ApplyTo)
	if err != nil {
		return model.TodoItem{}, err
	}
	defer s.finish(m.gen, id)

	it, err := s.api.UpdateTodo(ctx, id, patch)
	if err != nil {
		s.rollback(m)
		s.record(m.gen, "update", err)
		if model.IsNotFound(err) {
			s.reconcile(ctx, m.gen)
		}
		return model.TodoItem{}, err
	}
	if !s.commit(m, &it) {
		return model.TodoItem{}, model.ErrClosed
	}
	return it, nil
}

// Delete removes item id. Any failure triggers a resync since the local
// list can no longer be trusted.
func (s *Store) Delete(ctx context.Context, id int64) error {
	m, err := s.stage(id, modeRemove, nil)
	if err != nil {
		return err
	}
	defer s.finish(m.gen, id)

	if err := s.api.DeleteTodo(ctx, id); err != nil {
		s.rollback(m)
		s.record(m.gen, "delete", err)
		s.reconcile(ctx, m.gen)
		return err
	}
	if !s.commit(m, nil) {
		return model.ErrClosed
	}
	return nil
}

// ToggleComplete flips item id and keeps the server's version of it.
func (s *Store) ToggleComplete(ctx context.Context, id int64) (model.TodoItem, error) {
	m, err := s.stage(id, modeEdit, func(it *model.TodoItem) { it.Completed = !it.Completed })
	if err != nil {
		return model.TodoItem{}, err
	}
	defer s.finish(m.gen, id)

	it, err := s.api.ToggleComplete(ctx, id)
	if err != nil {
		s.rollback(m)
		s.record(m.gen, "toggle", err)
		s.reconcile(ctx, m.gen)
		return model.TodoItem{}, err
	}
	if !s.commit(m, &it) {
		return model.TodoItem{}, model.ErrClosed
	}
	return it, nil
}

// begin opens an operation: bumps the in-flight count and clears the error.
func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, model.ErrClosed
	}
	s.inflight++
	s.errMsg = ""
	gen := s.gen
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	return gen, nil
}

// finish closes an operation opened by begin or stage. id is the guarded
// item, 0 when there is none.
func (s *Store) finish(gen uint64, id int64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.inflight--
	if id != 0 {
		delete(s.pending, id)
	}
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// apply runs fn under the lock unless the store moved on to a new
// generation, in which case the result is dropped.
func (s *Store) apply(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	fn()
	return true
}

func (s *Store) record(gen uint64, op string, err error) {
	if errors.Is(err, model.ErrClosed) {
		return
	}
	s.apply(gen, func() { s.errMsg = err.Error() })
	s.log.Warn("todo store operation failed", zap.String("op", op), zap.Error(err))
}

// reload fetches the list with the current filter; it does not touch the
// error message.
func (s *Store) reload(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()

	items, err := s.api.ListTodos(ctx, f)
	if err != nil {
		return err
	}
	ok := s.apply(gen, func() {
		s.todos = make([]model.TodoItem, len(items))
		for i, it := range items {
			s.todos[i] = it.Clone()
		}
	})
	if !ok {
		return model.ErrClosed
	}
	return nil
}

// reconcile resyncs after a failed mutation. The mutation's error stays the
// one shown; a failing resync is only logged.
func (s *Store) reconcile(ctx context.Context, gen uint64) {
	if err := s.reload(context.WithoutCancel(ctx), gen); err != nil && !errors.Is(err, model.ErrClosed) {
		s.log.Warn("todo store reconciliation failed", zap.Error(err))
	}
}

func (s *Store) snapshotLocked() State {
	st := State{
		Todos:   make([]model.TodoItem, len(s.todos)),
		Loading: s.inflight > 0,
		Err:     s.errMsg,
	}
	for i, it := range s.todos {
		st.Todos[i] = it.Clone()
	}
	for id := range s.pending {
		st.Pending = append(st.Pending, id)
	}
	sort.Slice(st.Pending, func(i, j int) bool { return st.Pending[i] < st.Pending[j] })
	return st
}

// publishLocked captures the state and the listeners; the returned func
// delivers it and must be called after the lock is released.
func (s *Store) publishLocked() func() {
	if len(s.listeners) == 0 {
		return func() {}
	}
	st := s.snapshotLocked()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), len(ids))
	for i, id := range ids {
		fns[i] = s.listeners[id]
	}
	return func() {
		for _, fn := range fns {
			fn(st)
		}
	}
}

func (s *Store) indexLocked(id int64) int {
	for i, it := range s.todos {
		if it.ID == id {
			return i
		}
	}
	return -1
}
