package ecs

import "sort"

// Store is a typed component store keyed by EntityID. Iteration runs in
// ascending id order so every observer visits entities identically.
type Store[T any] struct {
	data  map[EntityID]*T
	order []EntityID
	dirty bool
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 256),
	}
}

func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
		s.dirty = true
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns a copy of the live ids in ascending order. Safe to hold while
// the store is mutated.
func (s *Store[T]) IDs() []EntityID {
	s.sort()
	out := make([]EntityID, len(s.order))
	copy(out, s.order)
	return out
}

// Each visits entries in id order. Entries added during iteration are not
// visited; entries removed during iteration are skipped.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *Store[T]) sort() {
	if !s.dirty {
		return
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	s.dirty = false
}
