package model

import (
	"strings"
	"time"
)

// SlugPlaceholder is the value interactive API clients submit when the slug
// input was left at its example value. It is treated as "no slug".
const SlugPlaceholder = "string"

// Category is a named resource with a unique slug.
type Category struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"required,max=191"`
	Slug      string    `json:"slug" bson:"slug" validate:"required,max=191"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

const (
	FieldName = "name"
	FieldSlug = "slug"
)

// Validate checks the category's required fields.
func (c Category) Validate() error { return ValidateStruct(c) }

// CategoryPatch carries the fields of a partial category update.
type CategoryPatch struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}

// Slugify derives a slug from a display name by replacing spaces with
// hyphens: "Home Goods" becomes "Home-Goods".
func Slugify(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// ResolveSlug returns slug verbatim unless it is empty or the placeholder,
// in which case the slug is derived from name.
func ResolveSlug(name, slug string) string {
	if strings.TrimSpace(slug) == "" || slug == SlugPlaceholder {
		return Slugify(name)
	}
	return slug
}
