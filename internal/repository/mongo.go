package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore stores documents in a MongoDB collection. T must map its id to
// the `_id` bson key. Unique fields rely on unique indexes created by
// database.EnsureIndexes.
type MongoStore[T any] struct {
	coll *mongo.Collection
}

// NewMongoStore binds a store to the named collection of db.
func NewMongoStore[T any](db *mongo.Database, collection string) *MongoStore[T] {
	return &MongoStore[T]{coll: db.Collection(collection)}
}

func (s *MongoStore[T]) List(ctx context.Context, f Filter) ([]T, error) {
	filter := bson.M{}
	if !f.IsZero() {
		filter = mongoFilter(f)
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("repository: decode %s documents: %w", s.coll.Name(), err)
	}
	return out, nil
}

func (s *MongoStore[T]) FindOne(ctx context.Context, filters ...Filter) (T, error) {
	var v T
	if len(filters) == 0 {
		return v, ErrNotFound
	}
	err := s.coll.FindOne(ctx, mongoFilter(filters...)).Decode(&v)
	return v, translateMongo(err)
}

func (s *MongoStore[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	return v, translateMongo(err)
}

func (s *MongoStore[T]) Insert(ctx context.Context, id string, doc T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repository: encode %s document: %w", s.coll.Name(), err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("repository: encode %s document: %w", s.coll.Name(), err)
	}
	m["_id"] = id
	_, err = s.coll.InsertOne(ctx, m)
	return translateMongo(err)
}

// Update issues a single findOneAndUpdate with $set/$unset and returns the
// document as it is after the write.
func (s *MongoStore[T]) Update(ctx context.Context, id string, ch Changes) (T, error) {
	if ch.Empty() {
		return s.Get(ctx, id)
	}
	var v T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, mongoUpdate(ch), opts).Decode(&v)
	return v, translateMongo(err)
}

func (s *MongoStore[T]) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoFilter matches any of filters.
func mongoFilter(filters ...Filter) bson.M {
	if len(filters) == 1 {
		return bson.M{filters[0].Field: filters[0].Value}
	}
	or := make(bson.A, 0, len(filters))
	for _, f := range filters {
		or = append(or, bson.M{f.Field: f.Value})
	}
	return bson.M{"$or": or}
}

func mongoUpdate(ch Changes) bson.M {
	update := bson.M{}
	if len(ch.Set) > 0 {
		set := bson.M{}
		for k, v := range ch.Set {
			set[k] = v
		}
		update["$set"] = set
	}
	if len(ch.Unset) > 0 {
		unset := bson.M{}
		for _, k := range ch.Unset {
			unset[k] = ""
		}
		update["$unset"] = unset
	}
	return update
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
