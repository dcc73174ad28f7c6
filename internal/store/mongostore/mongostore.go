// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/katalog/internal/store"
)

// Collection names.
const (
	ItemsCollection    = "items"
	ImagesCollection   = "images"
	UsersCollection    = "users"
	SettingsCollection = "settings"
	TokensCollection   = "revoked_tokens"
)

// Store is the MongoDB backend.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	items    *mongo.Collection
	images   *mongo.Collection
	users    *mongo.Collection
	settings *mongo.Collection
	tokens   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, checks the connection and ensures indexes on dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := New(client, dbName)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensuring indexes: %w", err)
	}
	return s, nil
}

// New wraps a connected client. Indexes are not touched.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		db:       db,
		items:    db.Collection(ItemsCollection),
		images:   db.Collection(ImagesCollection),
		users:    db.Collection(UsersCollection),
		settings: db.Collection(SettingsCollection),
		tokens:   db.Collection(TokensCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ratings.userId", Value: 1}}},
		{Keys: bson.D{{Key: "reviews.userId", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// objectID parses a hex id. Malformed ids can never match a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}
