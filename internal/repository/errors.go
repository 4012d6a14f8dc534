// Package repository defines the document-store contract used by the
// service layer and its backends. The sentinel errors below let higher
// layers distinguish failure scenarios without knowing which backend is in
// use; every backend translates its native errors into them.
package repository

import "errors"

// ErrNotFound is returned when no document matches the requested id or
// filter. Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert or update would violate a unique
// field of the collection. Handlers translate it into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate key")

// ErrInvalidValue is returned when the store rejects a field value, such as
// one longer than its column. Handlers translate it into an HTTP 400 response.
var ErrInvalidValue = errors.New("invalid field value")
