package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/model"
)

// SampleItems are inserted by Seed into an empty catalog, one per category.
var SampleItems = []NewItem{
	{
		Name:        "The Dark Side of the Moon - Pink Floyd",
		Description: "Original 1973 vinyl pressing in excellent condition",
		Price:       299.99,
		Category:    model.CategoryVinyls,
		Attributes:  model.Attributes{Age: ptr(50)},
	},
	{
		Name:        "Victorian Era Mahogany Desk",
		Description: "Beautifully preserved Victorian-era writing desk with intricate carvings",
		Price:       1299.99,
		Category:    model.CategoryAntiqueFurniture,
		Attributes:  model.Attributes{Age: ptr(150), Material: "Mahogany"},
	},
	{
		Name:        "Garmin Fenix 7X Solar",
		Description: "Advanced multisport GPS watch with solar charging",
		Price:       799.99,
		Category:    model.CategoryGPSSportWatches,
		Attributes:  model.Attributes{BatteryLife: ptr(28 * 24)},
	},
	{
		Name:        "Nike ZoomX Vaporfly Next% 2",
		Description: "Elite racing shoe with carbon fiber plate",
		Price:       249.99,
		Category:    model.CategoryRunningShoes,
		Attributes:  model.Attributes{Size: "US 7-13", Material: "ZoomX Foam"},
	},
}

// Seed inserts SampleItems, sold by seller, when the catalog has no items.
// It returns the number of items inserted.
func (s *Service) Seed(ctx context.Context, seller string) (int, error) {
	n, err := do(s, ctx, s.store.CountItems)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("catalog already has items, not seeding", "items", n)
		return 0, nil
	}

	who := model.Principal{ID: "seed", Username: seller, IsAdmin: true}
	for i, in := range SampleItems {
		if _, err := s.CreateItem(ctx, who, in); err != nil {
			return i, fmt.Errorf("seeding %q: %w", in.Name, err)
		}
	}
	return len(SampleItems), nil
}

// BootstrapAdmin creates the first admin account when there is none and
// returns its generated password. created is false when an admin exists.
func (s *Service) BootstrapAdmin(ctx context.Context, username string) (password string, created bool, err error) {
	admins, err := do(s, ctx, s.store.CountAdmins)
	if err != nil {
		return "", false, err
	}
	if admins > 0 {
		return "", false, nil
	}

	password, err = auth.GeneratePassword(16)
	if err != nil {
		return "", false, err
	}
	if _, err := s.createUser(ctx, NewUser{Username: username, Password: password, IsAdmin: true}); err != nil {
		return "", false, fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("admin account created", "user", username)
	return password, true, nil
}

func ptr(v int) *int { return &v }
