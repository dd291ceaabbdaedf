package variable

import "encoding/json"

// Set is an insertion-ordered set. The zero value is not usable; a nil
// *Set reads as empty.
type Set[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewSet returns a set holding items in order, without duplicates.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{index: make(map[T]struct{}, len(items))}
	s.AddAll(items...)
	return s
}

// Add inserts v and reports whether it was new.
func (s *Set[T]) Add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// AddAll inserts every item of vs.
func (s *Set[T]) AddAll(vs ...T) {
	for _, v := range vs {
		s.Add(v)
	}
}

// Remove deletes v and reports whether it was present.
func (s *Set[T]) Remove(v T) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of items.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *Set[T]) Items() []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s.items...)
}

// Clone returns an independent copy.
func (s *Set[T]) Clone() *Set[T] {
	return NewSet(s.Items()...)
}

// Equal reports whether both sets hold the same items, ignoring order.
func (s *Set[T]) Equal(other *Set[T]) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, v := range s.Items() {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as an array.
func (s *Set[T]) MarshalJSON() ([]byte, error) {
	items := s.Items()
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// Distinct returns items without duplicates, keeping first occurrences.
func Distinct[T comparable](items []T) []T {
	return NewSet(items...).Items()
}
