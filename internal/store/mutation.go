package store

import (
	"github.com/idilsaglam/todosync/internal/model"
)

type mode int

const (
	modeEdit mode = iota
	modeRemove
)

// mutation is a tentative change to one item, staged locally while the
// server call is outstanding, then committed or rolled back.
type mutation struct {
	id    int64
	gen   uint64
	mode  mode
	orig  *model.TodoItem // nil when the item was not held locally
	index int
}

// stage opens an operation guarded on id and applies the tentative change.
// edit is used in modeEdit only.
func (s *Store) stage(id int64, md mode, edit func(*model.TodoItem)) (*mutation, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, model.ErrClosed
	}
	if _, busy := s.pending[id]; busy {
		s.mu.Unlock()
		return nil, &model.BusyError{ID: id}
	}
	s.pending[id] = struct{}{}
	s.inflight++
	s.errMsg = ""

	m := &mutation{id: id, gen: s.gen, mode: md, index: s.indexLocked(id)}
	if m.index >= 0 {
		orig := s.todos[m.index].Clone()
		m.orig = &orig
		switch md {
		case modeRemove:
			s.todos = append(s.todos[:m.index:m.index], s.todos[m.index+1:]...)
		case modeEdit:
			if edit != nil {
				edit(&s.todos[m.index])
			}
		}
	}
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
	return m, nil
}

// commit settles the item on the server's answer: a removal drops every
// entry with the id (a refresh may have brought it back meanwhile), an edit
// takes the server's version. It reports false when the store has been
// closed meanwhile.
func (s *Store) commit(m *mutation, server *model.TodoItem) bool {
	return s.apply(m.gen, func() {
		if m.mode == modeRemove {
			kept := s.todos[:0:0]
			for _, it := range s.todos {
				if it.ID != m.id {
					kept = append(kept, it)
				}
			}
			s.todos = kept
			return
		}
		if server == nil {
			return
		}
		if i := s.indexLocked(m.id); i >= 0 {
			s.todos[i] = server.Clone()
		}
	})
}

// rollback restores the item as it was before stage.
func (s *Store) rollback(m *mutation) {
	s.apply(m.gen, func() {
		if m.orig == nil {
			return
		}
		i := s.indexLocked(m.id)
		if m.mode == modeEdit {
			if i >= 0 {
				s.todos[i] = *m.orig
			}
			return
		}
		if i >= 0 {
			return
		}
		at := m.index
		if at > len(s.todos) {
			at = len(s.todos)
		}
		s.todos = append(s.todos[:at], append([]model.TodoItem{*m.orig}, s.todos[at:]...)...)
	})
}
