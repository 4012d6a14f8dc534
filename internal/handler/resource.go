package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zaporka-api/internal/service"
)

// ResourceHandler exposes one generic collection over HTTP. The same five
// handlers serve every collection; only the entity and patch types differ.
type ResourceHandler[T any, P any] struct {
	Coll *service.Collection[T, P]
	// Name is the singular resource name used in messages.
	Name string
}

func NewResourceHandler[T any, P any](coll *service.Collection[T, P], name string) *ResourceHandler[T, P] {
	return &ResourceHandler[T, P]{Coll: coll, Name: name}
}

type dataResp struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// List: GET / with an optional ?<field>=<value> equality filter. Only the
// collection's filterable fields are read from the query; the first one
// present wins.
func (h *ResourceHandler[T, P]) List(c echo.Context) error {
	var field, value string
	for _, f := range h.Coll.FilterFields() {
		if v := strings.TrimSpace(c.QueryParam(f)); v != "" {
			field, value = f, v
			break
		}
	}
	var (
		items []T
		err   error
	)
	if field == "" {
		items, err = h.Coll.List(c.Request().Context(), "", nil)
	} else {
		items, err = h.Coll.List(c.Request().Context(), field, value)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResp{Success: true, Data: items})
}

// Get: GET /:id
func (h *ResourceHandler[T, P]) Get(c echo.Context) error {
	v, err := h.Coll.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResp{Success: true, Data: v})
}

// Create: POST / with the full record as body.
func (h *ResourceHandler[T, P]) Create(c echo.Context) error {
	var in T
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Coll.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResp{Success: true, Data: v})
}

// Update: PUT|PATCH /:id with only the fields to change.
func (h *ResourceHandler[T, P]) Update(c echo.Context) error {
	var patch P
	if err := bind(c, &patch); err != nil {
		return err
	}
	v, err := h.Coll.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResp{Success: true, Data: v})
}

// Remove: DELETE /:id
func (h *ResourceHandler[T, P]) Remove(c echo.Context) error {
	if err := h.Coll.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": h.Name + " deleted"})
}
