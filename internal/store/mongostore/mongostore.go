// Package mongostore keeps search counters in a MongoDB collection, the
// hosted document-store backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/handsomefox/moodreel/internal/store"
)

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			return nil, errors.Join(err, derr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "searchTerm", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "count", Value: -1}}},
	})
	if err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			return nil, errors.Join(err, derr)
		}
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &Store{client: client, collection: coll}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) FindByTerm(ctx context.Context, term string) (store.Counter, error) {
	var c store.Counter
	err := s.collection.FindOne(ctx, bson.M{"searchTerm": term}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Counter{}, store.ErrNotFound
	}
	return c, err
}

func (s *Store) Create(ctx context.Context, counter *store.Counter) error {
	now := time.Now().UTC().Format(time.RFC3339)

	c := *counter
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, c); err != nil {
		return err
	}
	*counter = c
	return nil
}

// Increment upserts seed.SearchTerm and bumps its count with $inc. Two
// first hits may race on the unique index; the loser retries as an update.
func (s *Store) Increment(ctx context.Context, seed store.Counter) (store.Counter, error) {
	c, err := s.increment(ctx, seed)
	if mongo.IsDuplicateKeyError(err) {
		c, err = s.increment(ctx, seed)
	}
	return c, err
}

func (s *Store) increment(ctx context.Context, seed store.Counter) (store.Counter, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"movie_id":   seed.MovieID,
			"title":      seed.Title,
			"poster_url": seed.PosterURL,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c store.Counter
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"searchTerm": seed.SearchTerm}, update, opts).Decode(&c)
	return c, err
}

func (s *Store) Top(ctx context.Context, limit int) ([]store.Counter, error) {
	out := []store.Counter{}
	if limit <= 0 {
		return out, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}, {Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
