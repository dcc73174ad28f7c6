package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/model"
	"github.com/erazemk/katalog/internal/rating"
	"github.com/erazemk/katalog/internal/store"
)

// MaxUsernameLength bounds usernames.
const MaxUsernameLength = 64

// NewUser is the admin input for creating an account.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Profile returns the reverse profile of username. Only admins may view an
// admin's profile, apart from the admin themselves.
func (s *Service) Profile(ctx context.Context, viewer model.Principal, username, order string) (*model.Profile, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	ord, err := rating.ParseOrder(order)
	if err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "Profile", attribute.String("username", username))
	p, err := s.profile(ctx, viewer, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUserByUsername(ctx, username)
	}, ord)
	finish(span, err)
	return p, err
}

// MyProfile returns the viewer's own reverse profile.
func (s *Service) MyProfile(ctx context.Context, viewer model.Principal, order string) (*model.Profile, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	ord, err := rating.ParseOrder(order)
	if err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "MyProfile")
	p, err := s.profile(ctx, viewer, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUser(ctx, viewer.ID)
	}, ord)
	finish(span, err)
	return p, err
}

func (s *Service) profile(ctx context.Context, viewer model.Principal, find func(context.Context) (*model.User, error), ord rating.Order) (*model.Profile, error) {
	user, err := do(s, ctx, find)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", model.ErrNotFound)
	}
	if user.IsAdmin && !viewer.IsAdmin && user.ID != viewer.ID {
		return nil, fmt.Errorf("%w: cannot view an admin profile", model.ErrForbidden)
	}

	items, err := do(s, ctx, func(ctx context.Context) ([]model.Item, error) {
		return s.store.ListItemsByUser(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	p := rating.ProfileOf(user.Username, user.ID, items)
	rating.SortProfile(p.Reviews, ord)
	return &p, nil
}

// CreateUser adds an account.
func (s *Service) CreateUser(ctx context.Context, who model.Principal, in NewUser) (*model.User, error) {
	if err := requireAdmin(who); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	if len(in.Username) > MaxUsernameLength {
		return nil, fmt.Errorf("%w: username longer than %d characters", model.ErrInvalidInput, MaxUsernameLength)
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "user", who.Username, "created", user.Username, "isAdmin", user.IsAdmin)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, in NewUser) (*model.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           model.NewID(),
		Username:     in.Username,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, span := s.span(ctx, "CreateUser")
	err = call(s, ctx, func(ctx context.Context) error {
		return s.store.CreateUser(ctx, user)
	})
	finish(span, err)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("%w: username %q is taken", model.ErrConflict, in.Username)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context, who model.Principal) ([]model.User, error) {
	if err := requireAdmin(who); err != nil {
		return nil, err
	}

	users, err := do(s, ctx, s.store.ListUsers)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// DeleteUser removes an account and its ratings and reviews. Deleting the
// last admin is Forbidden; an admin deleting their own account while
// another admin remains is InvalidInput.
//
// Feedback is removed item by item before the account. If the store fails
// partway, the items already processed stay cleaned, the account is kept
// and ErrStoreUnavailable is returned; retrying finishes the job.
func (s *Service) DeleteUser(ctx context.Context, who model.Principal, username string) error {
	if err := requireAdmin(who); err != nil {
		return err
	}

	ctx, span := s.span(ctx, "DeleteUser", attribute.String("username", username))
	cleaned, err := s.deleteUser(ctx, who, username)
	span.SetAttributes(attribute.Int("items.cleaned", cleaned))
	finish(span, err)
	if err != nil {
		if errors.Is(err, model.ErrStoreUnavailable) {
			slog.Error("user delete interrupted", "user", who.Username, "target", username, "itemsCleaned", cleaned, "error", err)
		}
		return err
	}

	slog.Info("user deleted", "user", who.Username, "deleted", username, "itemsCleaned", cleaned)
	return nil
}

func (s *Service) deleteUser(ctx context.Context, who model.Principal, username string) (int, error) {
	target, err := do(s, ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.GetUserByUsername(ctx, username)
	})
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
	}
	if target.IsAdmin {
		admins, err := do(s, ctx, s.store.CountAdmins)
		if err != nil {
			return 0, err
		}
		if admins <= 1 {
			return 0, fmt.Errorf("%w: cannot delete the last admin", model.ErrForbidden)
		}
	}
	if target.ID == who.ID {
		return 0, fmt.Errorf("%w: cannot delete your own account", model.ErrInvalidInput)
	}

	items, err := do(s, ctx, func(ctx context.Context) ([]model.Item, error) {
		return s.store.ListItemsByUser(ctx, target.ID)
	})
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for i := range items {
		fb, err := rating.Delete(&items[i], target.ID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return cleaned, err
		}
		// A concurrently deleted item has nothing left to clean.
		if err := s.writeFeedback(ctx, items[i].ID, fb); err != nil && !errors.Is(err, model.ErrNotFound) {
			return cleaned, err
		}
		cleaned++
	}

	ok, err := do(s, ctx, func(ctx context.Context) (bool, error) {
		return s.store.DeleteUser(ctx, target.ID)
	})
	if err != nil {
		return cleaned, err
	}
	if !ok {
		return cleaned, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
	}
	return cleaned, nil
}
