// Package store defines the document store the catalog runs on.
//
// Two backends implement Store: sqlitestore keeps item documents as JSON in
// SQLite, mongostore keeps them in MongoDB collections. Lookups of a missing
// document return a nil result and a nil error.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/erazemk/katalog/internal/model"
)

// ErrDuplicate is returned when a unique key (the username) already exists.
var ErrDuplicate = errors.New("duplicate key")

// Items is the items collection.
type Items interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems returns every item, or only those in category when it is non-empty.
	ListItems(ctx context.Context, category model.Category) ([]model.Item, error)
	// ListItemsByUser returns items holding a rating or a review by userID.
	ListItemsByUser(ctx context.Context, userID string) ([]model.Item, error)
	CountItems(ctx context.Context) (int64, error)
	// SetFeedback writes ratings, reviews and averageRating in one update.
	// It reports false when the item does not exist.
	SetFeedback(ctx context.Context, id string, fb model.Feedback) (bool, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	SetItemImage(ctx context.Context, id string, data []byte, mime, ref string) (bool, error)
	GetItemImage(ctx context.Context, id string) ([]byte, string, error)
}

// Users is the users collection.
type Users interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// Usernames resolves ids to usernames; unknown ids are left out.
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
	CountAdmins(ctx context.Context) (int64, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// Settings holds process-wide values that must survive restarts.
type Settings interface {
	// JWTSecret returns the stored signing key, creating it on first use.
	JWTSecret(ctx context.Context) (string, error)
}

// Tokens is the revocation list for logged out sessions.
type Tokens interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Store is a complete backend.
type Store interface {
	Items
	Users
	Settings
	Tokens
	Ping(ctx context.Context) error
	Close() error
}
