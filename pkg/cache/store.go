package cache

import (
	"sync"
)

// Entry is a record that can produce a detached copy of itself.
type Entry[V any] interface {
	Clone() V
}

// Observer is told how many records a store gained (positive) or lost (negative).
type Observer func(store string, delta int)

// Option configures a Store.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver attaches a size observer.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// Store is an insertion-ordered identity map. It holds at most one record per
// key; upserting a present key mutates that record in place. All in-place
// mutation goes through Upsert and Update so it happens under the write lock.
type Store[K comparable, V Entry[V]] struct {
	name     string
	mu       sync.RWMutex
	items    map[K]V
	order    []K
	observer Observer
}

// New creates an empty store. name labels the store in metrics.
func New[K comparable, V Entry[V]](name string, opts ...Option) *Store[K, V] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		name:     name,
		items:    make(map[K]V),
		observer: o.observer,
	}
}

func (s *Store[K, V]) Name() string { return s.name }

// Upsert inserts the record built by create when key is absent, otherwise it
// reuses the existing instance. patch, if non-nil, is then applied to the
// live record. The membership check and the mutation happen under one lock.
// It returns the live record and whether it was already present.
func (s *Store[K, V]) Upsert(key K, create func() V, patch func(V)) (V, bool) {
	s.mu.Lock()
	rec, existed := s.items[key]
	if !existed {
		rec = create()
		s.items[key] = rec
		s.order = append(s.order, key)
	}
	if patch != nil {
		patch(rec)
	}
	s.mu.Unlock()
	if !existed {
		s.notify(1)
	}
	return rec, existed
}

// Update patches an existing record. It reports false, and does nothing, when
// key is absent.
func (s *Store[K, V]) Update(key K, patch func(V)) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if ok && patch != nil {
		patch(rec)
	}
	return rec, ok
}

func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok
}

func (s *Store[K, V]) Has(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Snapshot returns a detached clone of the record taken under the read lock.
func (s *Store[K, V]) Snapshot(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return rec.Clone(), true
}

// Remove deletes key and returns the removed record. Absent keys are a no-op.
func (s *Store[K, V]) Remove(key K) (V, bool) {
	s.mu.Lock()
	rec, ok := s.items[key]
	if ok {
		delete(s.items, key)
		s.dropOrderLocked(key)
	}
	s.mu.Unlock()
	if ok {
		s.notify(-1)
	}
	return rec, ok
}

// RemoveIf deletes key only when pred holds for its record, checked under the
// same lock as the removal.
func (s *Store[K, V]) RemoveIf(key K, pred func(V) bool) (V, bool) {
	s.mu.Lock()
	rec, ok := s.items[key]
	if ok && pred(rec) {
		delete(s.items, key)
		s.dropOrderLocked(key)
	} else {
		ok = false
	}
	s.mu.Unlock()
	if ok {
		s.notify(-1)
	}
	return rec, ok
}

func (s *Store[K, V]) dropOrderLocked(key K) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Values returns the records in insertion order.
func (s *Store[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Range calls fn for every record in insertion order under the read lock, so
// fn sees no half-applied patch. fn must not call back into the store.
func (s *Store[K, V]) Range(fn func(V)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.order {
		fn(s.items[k])
	}
}

// Read calls fn with the record for key under the read lock. It reports
// false, without calling fn, when key is absent.
func (s *Store[K, V]) Read(key K, fn func(V)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if ok {
		fn(rec)
	}
	return ok
}

// Keys returns the keys in insertion order.
func (s *Store[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// First returns the earliest inserted record.
func (s *Store[K, V]) First() (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		var zero V
		return zero, false
	}
	return s.items[s.order[0]], true
}

// Find returns the first record, in insertion order, matching pred.
func (s *Store[K, V]) Find(pred func(V) bool) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.order {
		if rec := s.items[k]; pred(rec) {
			return rec, true
		}
	}
	var zero V
	return zero, false
}

// Filter returns every record matching pred in insertion order.
func (s *Store[K, V]) Filter(pred func(V) bool) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []V
	for _, k := range s.order {
		if rec := s.items[k]; pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Sweep removes every record matching pred and returns how many were removed.
func (s *Store[K, V]) Sweep(pred func(V) bool) int {
	s.mu.Lock()
	kept := s.order[:0]
	removed := 0
	for _, k := range s.order {
		if pred(s.items[k]) {
			delete(s.items, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	s.mu.Unlock()
	if removed > 0 {
		s.notify(-removed)
	}
	return removed
}

// Clear drops every record.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	n := len(s.items)
	s.items = make(map[K]V)
	s.order = nil
	s.mu.Unlock()
	if n > 0 {
		s.notify(-n)
	}
}

func (s *Store[K, V]) notify(delta int) {
	if s.observer != nil {
		s.observer(s.name, delta)
	}
}
