package mongostore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JWTSecret returns the stored signing key. The first caller's candidate is
// kept via an upsert with $setOnInsert, so concurrent starts agree.
func (s *Store) JWTSecret(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := s.settings.UpdateOne(ctx,
		bson.M{"_id": "jwt_secret"},
		bson.M{"$setOnInsert": bson.M{"value": hex.EncodeToString(buf)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var doc struct {
		Value string `bson:"value"`
	}
	if err := s.settings.FindOne(ctx, bson.M{"_id": "jwt_secret"}).Decode(&doc); err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}
	return doc.Value, nil
}

// RevokeToken adds a token's JTI to the revocation list. The TTL index on
// expiresAt removes it once the token could no longer be used anyway.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.tokens.UpdateOne(ctx,
		bson.M{"_id": jti},
		bson.M{"$setOnInsert": bson.M{"expiresAt": expiresAt.UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.tokens.CountDocuments(ctx, bson.M{"_id": jti})
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}
