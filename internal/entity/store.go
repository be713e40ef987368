// Package entity keeps an in-memory ordered list of rows in step with backend
// mutations, so a view can patch its list after a successful call instead of
// fetching it again.
//
// Callers patch only after the backend call succeeded. A failed call leaves
// the store as it was.
package entity

import (
	"errors"
	"slices"
	"sync"
)

// ErrNotInStore is returned by Update and Delete when no entry has the id.
// The store is left unchanged.
var ErrNotInStore = errors.New("entity not in store")

// Store is an ordered collection of T keyed by the id function. Concurrent
// patches are serialized; the last one applied wins.
type Store[T any] struct {
	id    func(T) string
	merge func(old, updated T) T

	mu    sync.Mutex
	items []T
}

// New returns an empty store. merge builds the replacement for an updated
// entry from the old entry and the row the backend returned; nil means the
// returned row replaces the old one verbatim.
func New[T any](id func(T) string, merge func(old, updated T) T) *Store[T] {
	if merge == nil {
		merge = func(_, updated T) T { return updated }
	}
	return &Store[T]{id: id, merge: merge}
}

// Reset replaces the whole collection, keeping the given order.
func (s *Store[T]) Reset(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
}

// Prepend makes item the first element.
func (s *Store[T]) Prepend(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Insert(s.items, 0, item)
}

// Append adds item at the end.
func (s *Store[T]) Append(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

// Update replaces the entry with the same id in place.
func (s *Store[T]) Update(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(s.id(item))
	if i < 0 {
		return ErrNotInStore
	}
	s.items[i] = s.merge(s.items[i], item)
	return nil
}

// Delete removes the entry with id.
func (s *Store[T]) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotInStore
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the collection in order.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store[T]) index(id string) int {
	return slices.IndexFunc(s.items, func(item T) bool { return s.id(item) == id })
}
