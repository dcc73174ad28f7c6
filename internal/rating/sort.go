package rating

import (
	"fmt"
	"sort"

	"github.com/erazemk/katalog/internal/model"
)

// Order is a presentation order for feedback lists.
type Order string

// Orders. OrderInsertion keeps the stored order.
const (
	OrderInsertion Order = ""
	OrderNewest    Order = "newest"
	OrderOldest    Order = "oldest"
)

// ParseOrder validates a sort query value.
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderInsertion, OrderNewest, OrderOldest:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", model.ErrInvalidInput, s)
	}
}

// SortDisplay orders display reviews by creation time in place.
func SortDisplay(reviews []model.DisplayReview, order Order) {
	if order == OrderInsertion {
		return
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		if order == OrderNewest {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
	})
}

// SortProfile orders profile entries by creation time in place.
func SortProfile(entries []model.ProfileEntry, order Order) {
	if order == OrderInsertion {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if order == OrderNewest {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
