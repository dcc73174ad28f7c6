package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/katalog/internal/model"
	"github.com/erazemk/katalog/internal/store"
)

// CreateUser inserts a new user. An empty ID is filled in.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = model.NewID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	doc, err := toUserDoc(user)
	if err != nil {
		return err
	}
	_, err = s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("creating user %q: %w", user.Username, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return doc.toModel(), nil
}

// ListUsers returns all users in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("finding users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []model.User
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding user: %w", err)
		}
		users = append(users, *doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return users, nil
}

// Usernames resolves user ids to usernames in one query.
func (s *Store) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return names, nil
	}

	cursor, err := s.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		options.Find().SetProjection(bson.M{"username": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("finding usernames: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID       primitive.ObjectID `bson:"_id"`
			Username string             `bson:"username"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding username: %w", err)
		}
		names[doc.ID.Hex()] = doc.Username
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return names, nil
}

// CountAdmins returns the number of admin users.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"isAdmin": true})
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUserPassword updates a user's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return res.DeletedCount > 0, nil
}
