package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/config"
	"github.com/iliyamo/zaporka-api/internal/database"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/repository"
	"github.com/iliyamo/zaporka-api/internal/service"
)

type stores struct {
	accounts   repository.Store[model.Account]
	categories repository.Store[model.Category]
	close      func()
}

// openStores builds the account and category stores for the configured
// driver. Every backend enforces phone number and slug uniqueness itself.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return stores{}, fmt.Errorf("open mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("mysql store ready")
		return stores{
			accounts:   repository.NewMySQLStore[model.Account](db, service.AccountsCollection),
			categories: repository.NewMySQLStore[model.Category](db, service.CategoriesCollection),
			close:      func() { _ = db.Close() },
		}, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return stores{}, err
		}
		err = database.EnsureIndexes(ctx, db,
			database.UniqueIndex{Collection: service.AccountsCollection, Field: model.FieldPhoneNumber},
			database.UniqueIndex{Collection: service.CategoriesCollection, Field: model.FieldSlug},
		)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("mongo store ready")
		return stores{
			accounts:   repository.NewMongoStore[model.Account](db, service.AccountsCollection),
			categories: repository.NewMongoStore[model.Category](db, service.CategoriesCollection),
			close:      func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		log.Warn().Msg("using the in-memory store; data is lost on restart")
		return stores{
			accounts:   repository.NewMemoryStore[model.Account](model.FieldPhoneNumber),
			categories: repository.NewMemoryStore[model.Category](model.FieldSlug),
			close:      func() {},
		}, nil
	}
}
