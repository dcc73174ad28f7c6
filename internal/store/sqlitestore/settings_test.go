package sqlitestore

import (
	"context"
	"testing"
	"time"
)

func TestJWTSecretStable(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	first, err := s.JWTSecret(ctx)
	if err != nil {
		t.Fatalf("JWTSecret: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}

	second, err := s.JWTSecret(ctx)
	if err != nil {
		t.Fatalf("second JWTSecret: %v", err)
	}
	if first != second {
		t.Error("expected the stored secret to be reused")
	}
}

func TestRevokeAndCheckToken(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	revoked, err := s.IsTokenRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = s.IsTokenRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = s.IsTokenRevoked(ctx, "test-jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	if err := s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first RevokeToken: %v", err)
	}
	if err := s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
}
