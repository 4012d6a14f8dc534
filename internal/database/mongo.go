package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/iliyamo/zaporka-api/internal/config"
)

// ConnectMongo opens a client for cfg.URI, pings the primary and returns the
// configured database.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("database: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("database: mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// UniqueIndex names one collection field that must be unique.
type UniqueIndex struct {
	Collection string
	Field      string
}

// EnsureIndexes creates the unique indexes the stores rely on. Creating an
// index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, indexes ...UniqueIndex) error {
	for _, ix := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: ix.Field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_" + ix.Field),
		}
		if _, err := db.Collection(ix.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("database: index %s.%s: %w", ix.Collection, ix.Field, err)
		}
	}
	return nil
}
