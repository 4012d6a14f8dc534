package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// MemoryStore is an in-process Store. Documents are kept in their JSON form
// so partial updates and filters address fields by their json names, the
// same names the other backends use.
type MemoryStore[T any] struct {
	mu     sync.RWMutex
	docs   map[string]map[string]any
	order  []string
	unique []string
}

// NewMemoryStore returns an empty store enforcing the given unique fields.
func NewMemoryStore[T any](uniqueFields ...string) *MemoryStore[T] {
	return &MemoryStore[T]{docs: make(map[string]map[string]any), unique: uniqueFields}
}

func (s *MemoryStore[T]) List(_ context.Context, f Filter) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		doc := s.docs[id]
		if !f.IsZero() && !matches(doc, f) {
			continue
		}
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore[T]) FindOne(_ context.Context, filters ...Filter) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	for _, id := range s.order {
		doc := s.docs[id]
		for _, f := range filters {
			if matches(doc, f) {
				return decode[T](doc)
			}
		}
	}
	return zero, ErrNotFound
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return decode[T](doc)
}

func (s *MemoryStore[T]) Insert(_ context.Context, id string, v T) error {
	doc, err := encode(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; ok {
		return ErrDuplicate
	}
	if s.conflicts(id, doc) {
		return ErrDuplicate
	}
	s.docs[id] = doc
	s.order = append(s.order, id)
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, id string, ch Changes) (T, error) {
	var zero T
	set := make(map[string]any, len(ch.Set))
	for k, v := range ch.Set {
		nv, err := normalize(v)
		if err != nil {
			return zero, err
		}
		set[k] = nv
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.docs[id]
	if !ok {
		return zero, ErrNotFound
	}
	next := make(map[string]any, len(cur)+len(set))
	for k, v := range cur {
		next[k] = v
	}
	for k, v := range set {
		next[k] = v
	}
	for _, k := range ch.Unset {
		delete(next, k)
	}
	if s.conflicts(id, next) {
		return zero, ErrDuplicate
	}
	s.docs[id] = next
	return decode[T](next)
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// conflicts reports whether doc shares a non-empty unique field value with a
// document other than id. Caller holds the lock.
func (s *MemoryStore[T]) conflicts(id string, doc map[string]any) bool {
	for _, field := range s.unique {
		val, ok := doc[field]
		if !ok || val == nil || val == "" {
			continue
		}
		for otherID, other := range s.docs {
			if otherID != id && reflect.DeepEqual(other[field], val) {
				return true
			}
		}
	}
	return false
}

func matches(doc map[string]any, f Filter) bool {
	want, err := normalize(f.Value)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(doc[f.Field], want)
}

// normalize converts v to the shape it has after a JSON round trip so typed
// values (e.g. string enums, times) compare equal to stored ones.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("repository: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("repository: decode value: %w", err)
	}
	return out, nil
}

func encode[T any](v T) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("repository: encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("repository: encode document: %w", err)
	}
	return doc, nil
}

func decode[T any](doc map[string]any) (T, error) {
	var v T
	b, err := json.Marshal(doc)
	if err != nil {
		return v, fmt.Errorf("repository: decode document: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("repository: decode document: %w", err)
	}
	return v, nil
}
