package storage

import "memo/internal/model"

// Listener receives store events. Events fire synchronously on the
// mutating goroutine, and only after the corresponding write is durable.
type Listener interface {
	TaskInserted(t model.Task)
	TaskUpdated(t model.Task)
	TaskDeleted(id string)
	DatabaseError(msg string)
}

func (s *Store) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
}

func (s *Store) notifyInserted(t model.Task) {
	for _, l := range s.listeners {
		l.TaskInserted(t)
	}
}

func (s *Store) notifyUpdated(t model.Task) {
	for _, l := range s.listeners {
		l.TaskUpdated(t)
	}
}

func (s *Store) notifyDeleted(id string) {
	for _, l := range s.listeners {
		l.TaskDeleted(id)
	}
}

func (s *Store) notifyError(msg string) {
	for _, l := range s.listeners {
		l.DatabaseError(msg)
	}
}
