package csync

import "sync"

// Slice is a thread-safe slice implementation with generic types.
// It uses a RWMutex for concurrent read access and exclusive write access.
//
// The engine mostly uses it as a snapshot holder: a producer calls
// Replace with a freshly built slice, readers call All or Last. That
// keeps each snapshot internally consistent without readers holding a
// lock across iteration.
type Slice[T any] struct {
	data []T
	mu   sync.RWMutex
}

// NewSlice creates a new thread-safe slice
func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{
		data: make([]T, 0),
	}
}

// Append adds elements to the end of the slice
func (s *Slice[T]) Append(elements ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, elements...)
}

// Replace swaps the entire contents for the given slice.
// The argument is copied; the caller may keep mutating its own slice.
func (s *Slice[T]) Replace(elements []T) {
	copied := make([]T, len(elements))
	copy(copied, elements)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = copied
}

// All returns a copy of the slice contents, safe to iterate without locks.
func (s *Slice[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.data))
	copy(out, s.data)
	return out
}

// Last returns the final element and whether the slice is non-empty.
func (s *Slice[T]) Last() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	if len(s.data) == 0 {
		return zero, false
	}
	return s.data[len(s.data)-1], true
}

// Len returns the number of elements in the slice
func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
