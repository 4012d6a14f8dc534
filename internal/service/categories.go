package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/repository"
)

// Categories is the generic engine instantiated for categories.
type Categories = Collection[model.Category, model.CategoryPatch]

// CategoriesCollection is the store collection (and MySQL table) name.
const CategoriesCollection = "categories"

// NewCategories builds the categories collection. The slug is derived from
// the name when it is missing or left at the placeholder value.
func NewCategories(store repository.Store[model.Category], opts ...Option) *Categories {
	schema := Schema[model.Category, model.CategoryPatch]{
		Name:           "category",
		Collection:     CategoriesCollection,
		FilterFields:   []string{model.FieldSlug, model.FieldName},
		UpdatedAtField: model.FieldUpdatedAt,
		SetID:          func(c *model.Category, id string) { c.ID = id },
		Stamp: func(c *model.Category, now time.Time) {
			c.CreatedAt, c.UpdatedAt = now, now
		},
		Prepare: func(_ context.Context, c *model.Category) error {
			c.Name = strings.TrimSpace(c.Name)
			if c.Name != "" {
				c.Slug = model.ResolveSlug(c.Name, c.Slug)
			}
			return nil
		},
		Merge:    mergeCategory,
		Validate: model.Category.Validate,
	}
	return NewCollection(schema, store, opts...)
}

func mergeCategory(_ context.Context, cur model.Category, p model.CategoryPatch) (model.Category, repository.Changes, error) {
	next := cur
	var ch repository.Changes

	if p.Name != nil {
		setString(&ch, model.FieldName, &next.Name, trimmed(p.Name))
	}
	if p.Slug != nil {
		slug := model.ResolveSlug(next.Name, *p.Slug)
		setString(&ch, model.FieldSlug, &next.Slug, &slug)
	}
	return next, ch, nil
}
