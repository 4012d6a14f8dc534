package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/config"
	"github.com/iliyamo/zaporka-api/internal/handler"
	"github.com/iliyamo/zaporka-api/internal/middleware"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/service"
)

// categoriesGroup namespaces the cached category responses in Redis.
const categoriesGroup = "categories"

// Deps carries everything the routes need.
type Deps struct {
	Driver     string
	Gate       *service.Gate
	Auth       *handler.AuthHandler
	Users      *handler.ResourceHandler[model.Account, model.AccountPatch]
	Categories *handler.ResourceHandler[model.Category, model.CategoryPatch]
	Cache      config.CacheConfig
	Redis      *redis.Client // nil disables the response cache
	Log        zerolog.Logger
}

// RegisterRoutes registers every route on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// load balancers and monitoring probe this endpoint
	e.GET("/healthz", handler.Health(d.Driver))

	api := e.Group("/api/v1")
	auth := middleware.JWTAuth(d.Gate)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// register and login issue tokens; profile needs one and lets any caller
	// edit their own account
	a := api.Group("/auth")
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.GET("/profile", d.Auth.Profile, auth)
	a.PUT("/profile", d.Auth.UpdateProfile, auth)
	a.PATCH("/profile", d.Auth.UpdateProfile, auth)

	// every user route requires a token; writes are admin only
	u := api.Group("/users", auth)
	u.GET("", d.Users.List)
	u.GET("/:id", d.Users.Get)
	u.PUT("/:id", d.Users.Update, adminOnly)
	u.PATCH("/:id", d.Users.Update, adminOnly)
	u.DELETE("/:id", d.Users.Remove, adminOnly)

	// categories are public to read and cached; writes need a token and
	// drop the cached reads
	cached := middleware.NewRedisCache(d.Cache, d.Redis, categoriesGroup)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, categoriesGroup, d.Log)
	c := api.Group("/categories")
	c.GET("", d.Categories.List, cached)
	c.GET("/:id", d.Categories.Get, cached)
	c.POST("", d.Categories.Create, auth, invalidate)
	c.PUT("/:id", d.Categories.Update, auth, invalidate)
	c.PATCH("/:id", d.Categories.Update, auth, invalidate)
	c.DELETE("/:id", d.Categories.Remove, auth, invalidate)
}
