package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/model"
)

// Session is the result of a successful login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      model.Principal `json:"user"`
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", model.ErrInvalidInput)
	}

	user, err := do(s, ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUserByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "username", username)
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
	}

	p := user.Principal()
	token, claims, err := auth.GenerateToken(s.secret, p)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user", user.Username, "isAdmin", user.IsAdmin)
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: p}, nil
}

// Authenticate validates a token and returns its claims with the identity
// refreshed from the store. Revoked tokens and tokens of deleted users are
// rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(s.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", model.ErrUnauthorized)
	}

	revoked, err := do(s, ctx, func(ctx context.Context) (bool, error) {
		return s.revocations.IsRevoked(ctx, claims.ID)
	})
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", model.ErrUnauthorized)
	}

	user, err := do(s, ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUser(ctx, claims.UserID)
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: account no longer exists", model.ErrUnauthorized)
	}

	claims.Username = user.Username
	claims.IsAdmin = user.IsAdmin
	return claims, nil
}

// Logout revokes the token behind claims.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return fmt.Errorf("%w: not authenticated", model.ErrUnauthorized)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	} else {
		expiresAt = s.now().Add(auth.TokenExpiry)
	}

	err := call(s, ctx, func(ctx context.Context) error {
		return s.revocations.Revoke(ctx, claims.ID, expiresAt)
	})
	if err != nil {
		return err
	}

	slog.Info("user logged out", "user", claims.Username)
	return nil
}

// ChangePassword replaces who's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, who model.Principal, current, next string) error {
	if err := requireUser(who); err != nil {
		return err
	}
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password required", model.ErrInvalidInput)
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}

	user, err := do(s, ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUser(ctx, who.ID)
	})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", model.ErrNotFound)
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return fmt.Errorf("%w: current password is incorrect", model.ErrUnauthorized)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	err = call(s, ctx, func(ctx context.Context) error {
		return s.store.UpdateUserPassword(ctx, who.ID, hash)
	})
	if err != nil {
		return err
	}

	slog.Info("user changed own password", "user", who.Username)
	return nil
}
