// Package service holds the core operations: the generic resource engine,
// the authentication engine and the authorization gate. Handlers translate
// HTTP requests into calls on these types and render their results; nothing
// here knows about the transport.
package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/queue"
	"github.com/iliyamo/zaporka-api/internal/repository"
)

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Schema describes how the generic engine handles one entity type T and its
// patch type P.
type Schema[T any, P any] struct {
	// Name is the singular resource name used in error messages.
	Name string
	// Collection is the store collection name reported in events.
	Collection string
	// FilterFields lists the fields List accepts a filter on.
	FilterFields []string
	// UpdatedAtField is stamped on every update when non-empty.
	UpdatedAtField string

	SetID func(*T, string)
	Stamp func(*T, time.Time)
	// Prepare derives and normalizes fields before a create.
	Prepare func(ctx context.Context, v *T) error
	// Merge applies a patch on top of the stored record and returns the
	// merged record together with the fields that actually changed.
	Merge func(ctx context.Context, current T, patch P) (T, repository.Changes, error)
	// Validate runs model-level rules on a complete record.
	Validate func(T) error
	// Present strips fields that must not leave the service.
	Present func(T) T
}

// Option configures a Collection.
type Option func(*options)

type options struct {
	events EventPublisher
	log    zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// WithEvents publishes an event after every successful write.
func WithEvents(p EventPublisher) Option { return func(o *options) { o.events = p } }

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithNow replaces the clock used for timestamps.
func WithNow(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithIDs replaces the identifier generator.
func WithIDs(newID func() string) Option { return func(o *options) { o.newID = newID } }

func buildOptions(opts []Option) options {
	o := options{
		events: queue.Nop{},
		log:    zerolog.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Collection exposes list/get/create/update/remove over one store with
// uniform error semantics. It is safe for concurrent use; consistency of
// concurrent writes is left to the store's single-document atomicity.
type Collection[T any, P any] struct {
	schema Schema[T, P]
	store  repository.Store[T]
	opts   options
}

// NewCollection instantiates the engine for one collection.
func NewCollection[T any, P any](schema Schema[T, P], store repository.Store[T], opts ...Option) *Collection[T, P] {
	if schema.Present == nil {
		schema.Present = func(v T) T { return v }
	}
	return &Collection[T, P]{schema: schema, store: store, opts: buildOptions(opts)}
}

// FilterFields returns the fields List accepts a filter on.
func (c *Collection[T, P]) FilterFields() []string { return slices.Clone(c.schema.FilterFields) }

// List returns every record, or only those whose field equals value when
// field is non-empty. The result is materialized once per call.
func (c *Collection[T, P]) List(ctx context.Context, field string, value any) ([]T, error) {
	var f repository.Filter
	if field != "" {
		if !slices.Contains(c.schema.FilterFields, field) {
			return nil, apperr.Newf(apperr.KindValidation, "cannot filter %s by %q", c.schema.Name, field)
		}
		f = repository.Eq(field, value)
	}
	items, err := c.store.List(ctx, f)
	if err != nil {
		return nil, apperr.StoreUnavailable(err)
	}
	for i := range items {
		items[i] = c.schema.Present(items[i])
	}
	return items, nil
}

// Get returns the record with the given id.
func (c *Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	v, err := c.lookup(ctx, id)
	if err != nil {
		return v, err
	}
	return c.schema.Present(v), nil
}

// Lookup returns the first stored record matching any filter, unpresented.
// It is meant for trusted callers that need secret fields, such as login.
func (c *Collection[T, P]) Lookup(ctx context.Context, filters ...repository.Filter) (T, error) {
	v, err := c.store.FindOne(ctx, filters...)
	if err != nil {
		return v, c.translate(err)
	}
	return v, nil
}

// Create assigns an id and timestamps, derives fields, validates and
// inserts v. Uniqueness is enforced by the store.
func (c *Collection[T, P]) Create(ctx context.Context, v T) (T, error) {
	id := c.opts.newID()
	if c.schema.SetID != nil {
		c.schema.SetID(&v, id)
	}
	if c.schema.Stamp != nil {
		c.schema.Stamp(&v, c.opts.now().UTC())
	}
	if c.schema.Prepare != nil {
		if err := c.schema.Prepare(ctx, &v); err != nil {
			return v, apperr.From(err)
		}
	}
	if c.schema.Validate != nil {
		if err := c.schema.Validate(v); err != nil {
			return v, apperr.From(err)
		}
	}
	if err := c.store.Insert(ctx, id, v); err != nil {
		return v, c.translate(err)
	}
	c.publish(ctx, queue.ResourceCreated, id)
	return c.schema.Present(v), nil
}

// Update merges patch onto the stored record. Only fields present in the
// patch are written; the merged record is validated as a whole first.
func (c *Collection[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	cur, err := c.lookup(ctx, id)
	if err != nil {
		return cur, err
	}
	merged, changes, err := c.schema.Merge(ctx, cur, patch)
	if err != nil {
		return cur, apperr.From(err)
	}
	if c.schema.Validate != nil {
		if err := c.schema.Validate(merged); err != nil {
			return cur, apperr.From(err)
		}
	}
	if changes.Empty() {
		return c.schema.Present(cur), nil
	}
	if c.schema.UpdatedAtField != "" {
		changes.Put(c.schema.UpdatedAtField, c.opts.now().UTC())
	}
	updated, err := c.store.Update(ctx, id, changes)
	if err != nil {
		return cur, c.translate(err)
	}
	c.publish(ctx, queue.ResourceUpdated, id)
	return c.schema.Present(updated), nil
}

// Remove deletes the record with the given id.
func (c *Collection[T, P]) Remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return c.translate(err)
	}
	c.publish(ctx, queue.ResourceDeleted, id)
	return nil
}

func (c *Collection[T, P]) lookup(ctx context.Context, id string) (T, error) {
	v, err := c.store.Get(ctx, id)
	if err != nil {
		return v, c.translate(err)
	}
	return v, nil
}

func (c *Collection[T, P]) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(c.schema.Name)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Newf(apperr.KindDuplicateIdentity, "%s already exists", c.schema.Name)
	case errors.Is(err, repository.ErrInvalidValue):
		return apperr.Newf(apperr.KindValidation, "%s has an invalid field value", c.schema.Name).WithCause(err)
	default:
		return apperr.StoreUnavailable(err)
	}
}

// publish is best effort: a broker failure is logged, never returned.
func (c *Collection[T, P]) publish(ctx context.Context, typ queue.EventType, id string) {
	ev := queue.Event{Type: typ, Collection: c.schema.Collection, ID: id, At: c.opts.now().UTC()}
	if ident, ok := IdentityFrom(ctx); ok {
		ev.Actor = ident.ID
	}
	if err := c.opts.events.Publish(ctx, ev); err != nil {
		logEventFailure(c.opts.log, err, ev)
	}
}
