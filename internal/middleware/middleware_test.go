package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/config"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/service"
	"github.com/iliyamo/zaporka-api/internal/utils"
)

// kindHandler renders apperr kinds as plain text so tests can assert on them.
func kindHandler(err error, c echo.Context) {
	if e, ok := apperr.As(err); ok {
		_ = c.String(e.Status(), string(e.Kind))
		return
	}
	e := echo.New()
	e.DefaultHTTPErrorHandler(err, c)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = kindHandler
	return e
}

func do(e *echo.Echo, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	tokens, err := utils.NewTokenService("secret")
	require.NoError(t, err)
	gate := service.NewGate(tokens)

	admin, err := tokens.Issue(model.Account{ID: "a1", PhoneNumber: "+1", Role: model.RoleAdmin})
	require.NoError(t, err)
	user, err := tokens.Issue(model.Account{ID: "u1", PhoneNumber: "+2", Role: model.RoleUser})
	require.NoError(t, err)

	e := newEcho()
	whoami := func(c echo.Context) error {
		id, _ := service.IdentityFrom(c.Request().Context())
		return c.String(http.StatusOK, id.ID+":"+c.Get("role").(string))
	}
	e.GET("/me", whoami, JWTAuth(gate))
	e.GET("/admin", whoami, JWTAuth(gate), RequireRole(model.RoleAdmin))
	e.GET("/norole", whoami, RequireRole(model.RoleAdmin))

	rec := do(e, http.MethodGet, "/me", "Bearer "+user.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1:user", rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(apperr.KindMissingToken), rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "Token "+user.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(apperr.KindMalformedToken), rec.Body.String())

	rec = do(e, http.MethodGet, "/admin", "Bearer "+user.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/admin", "Bearer "+admin.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1:admin", rec.Body.String())

	rec = do(e, http.MethodGet, "/norole", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func cacheSetup(t *testing.T) (*miniredis.Miniredis, *redis.Client, config.CacheConfig) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
	return mr, rdb, cfg
}

func TestRedisCache_HitMissAndInvalidate(t *testing.T) {
	mr, rdb, cfg := cacheSetup(t)

	calls := 0
	e := newEcho()
	e.GET("/items/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "n": calls})
	}, NewRedisCache(cfg, rdb, "items"))
	e.POST("/items", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, InvalidateCache(cfg, rdb, "items", zerolog.Nop()))
	e.POST("/fail", func(c echo.Context) error {
		return apperr.New(apperr.KindValidation, "bad")
	}, InvalidateCache(cfg, rdb, "items", zerolog.Nop()))

	first := do(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := do(e, http.MethodGet, "/items/2", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
	assert.Len(t, mr.Keys(), 2)

	// a failed write keeps the cache
	do(e, http.MethodPost, "/fail", "")
	assert.Len(t, mr.Keys(), 2)

	rec := do(e, http.MethodPost, "/items", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, mr.Keys())

	again := do(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, "MISS", again.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestRedisCache_SkipsErrorsAndOtherGroups(t *testing.T) {
	mr, rdb, cfg := cacheSetup(t)
	require.NoError(t, mr.Set("cache:other:abc", "keep"))

	e := newEcho()
	e.GET("/missing", func(c echo.Context) error {
		return apperr.NotFound("item")
	}, NewRedisCache(cfg, rdb, "items"))
	e.DELETE("/items", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, InvalidateCache(cfg, rdb, "items", zerolog.Nop()))

	rec := do(e, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"cache:other:abc"}, mr.Keys())

	do(e, http.MethodDelete, "/items", "")
	assert.Equal(t, []string{"cache:other:abc"}, mr.Keys())
}

func TestRedisCache_DisabledIsPassthrough(t *testing.T) {
	e := newEcho()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") },
		NewRedisCache(config.CacheConfig{Enabled: false}, nil, "x"))
	rec := do(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
