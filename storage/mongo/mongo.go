/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package mongo stores groups in a MongoDB collection, one document per
// group with the code as _id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	c      *mongo.Collection
}

// Open connects to uri and uses the "groups" collection of database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := New(client.Database(database))
	s.client = client

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, g *models.Group) error {
	rec := g.Clone()
	rec.Version = 1

	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrExists
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	g.Version = 1

	return nil
}

func (s *Store) Get(ctx context.Context, code string) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": code}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()

	return &g, nil
}

// Update replaces the document only if its version still matches.
func (s *Store) Update(ctx context.Context, g *models.Group) error {
	rec := g.Clone()
	rec.Version = g.Version + 1

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": g.Code, "version": g.Version}, rec)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": g.Code})
		if err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}

	g.Version = rec.Version

	return nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete groups: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}
