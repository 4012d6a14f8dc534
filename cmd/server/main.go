package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/config"
	"github.com/iliyamo/zaporka-api/internal/handler"
	"github.com/iliyamo/zaporka-api/internal/logging"
	"github.com/iliyamo/zaporka-api/internal/queue"
	"github.com/iliyamo/zaporka-api/internal/router"
	"github.com/iliyamo/zaporka-api/internal/service"
	"github.com/iliyamo/zaporka-api/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // Load .env + environment config
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logging.Component(log, "store"))
	if err != nil {
		return err
	}
	defer st.close()

	tokens, err := utils.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)

	var events service.EventPublisher = queue.Nop{}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log)
		defer pub.Close()
		events = pub

		consumer := queue.NewAuditConsumer(cfg.RabbitMQURL, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	opts := []service.Option{service.WithEvents(events), service.WithLogger(log)}
	accounts := service.NewAccounts(st.accounts, hasher, opts...)
	categories := service.NewCategories(st.categories, opts...)
	auth := service.NewAuthService(accounts, hasher, tokens, opts...)

	rdb := openRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logging.Component(log, "http"))
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(logging.RequestLogger(logging.Component(log, "http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	router.RegisterRoutes(e, router.Deps{
		Driver:     cfg.StoreDriver,
		Gate:       service.NewGate(tokens),
		Auth:       handler.NewAuthHandler(auth),
		Users:      handler.NewResourceHandler(accounts, "user"),
		Categories: handler.NewResourceHandler(categories, "category"),
		Cache:      cfg.Cache,
		Redis:      rdb,
		Log:        logging.Component(log, "cache"),
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openRedis returns nil when caching is disabled or Redis is unreachable;
// the category routes then serve every read from the store.
func openRedis(cfg config.Config, log zerolog.Logger) *redis.Client {
	if !cfg.Cache.Enabled {
		return nil
	}
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; response cache disabled")
		return nil
	}
	return rdb
}
