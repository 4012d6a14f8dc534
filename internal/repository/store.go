package repository

import (
	"context"
	"fmt"
	"regexp"
)

// Filter is an equality match on a single document field. The zero Filter
// matches every document.
type Filter struct {
	Field string
	Value any
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool { return f.Field == "" }

// Eq builds a Filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Value: value} }

// Changes describes a partial update: fields in Set are written, fields in
// Unset are removed, everything else is left as stored.
type Changes struct {
	Set   map[string]any
	Unset []string
}

// Put records a field assignment.
func (c *Changes) Put(field string, value any) {
	if c.Set == nil {
		c.Set = make(map[string]any)
	}
	c.Set[field] = value
}

// Remove records a field removal.
func (c *Changes) Remove(field string) { c.Unset = append(c.Unset, field) }

// Empty reports whether c changes nothing.
func (c Changes) Empty() bool { return len(c.Set) == 0 && len(c.Unset) == 0 }

// Store is the document-store capability a collection needs. Every method is
// a single round trip to the backend; implementations must be safe for
// concurrent use and enforce their declared unique fields themselves.
type Store[T any] interface {
	// List returns all documents matching f, materialized once per call.
	List(ctx context.Context, f Filter) ([]T, error)
	// FindOne returns the first document matching any of the filters.
	FindOne(ctx context.Context, filters ...Filter) (T, error)
	// Get returns the document with the given id.
	Get(ctx context.Context, id string) (T, error)
	// Insert stores a new document whose id is already assigned.
	Insert(ctx context.Context, id string, doc T) error
	// Update applies ch atomically to the document and returns the result.
	Update(ctx context.Context, id string, ch Changes) (T, error)
	// Delete removes the document with the given id.
	Delete(ctx context.Context, id string) error
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// checkField guards backends that splice field names into queries.
func checkField(name string) error {
	if !fieldName.MatchString(name) {
		return fmt.Errorf("repository: invalid field name %q", name)
	}
	return nil
}
