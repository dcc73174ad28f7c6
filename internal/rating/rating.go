package rating

import (
	"time"

	"github.com/erazemk/katalog/internal/model"
)

// Upsert applies userID's rating and optional review to item's feedback and
// returns the new feedback. The item itself is not modified.
func Upsert(item *model.Item, userID string, score int, review string, now time.Time) (model.Feedback, error) {
	l := LedgerOf(item)
	if err := l.Upsert(userID, score, review, now); err != nil {
		return model.Feedback{}, err
	}
	return l.Feedback(), nil
}

// Delete removes userID's rating and review from item's feedback and returns
// the new feedback. It returns model.ErrNotFound when there was nothing to
// remove. The item itself is not modified.
func Delete(item *model.Item, userID string) (model.Feedback, error) {
	l := LedgerOf(item)
	if err := l.Remove(userID); err != nil {
		return model.Feedback{}, err
	}
	return l.Feedback(), nil
}

// UsernameLookup resolves a user id to a username. ok is false for users
// that no longer exist.
type UsernameLookup func(userID string) (username string, ok bool)

// MapLookup adapts a prefetched id -> username map.
func MapLookup(names map[string]string) UsernameLookup {
	return func(userID string) (string, bool) {
		name, ok := names[userID]
		return name, ok
	}
}

// Join pairs every rating of item with its author's review and username.
// Reviews without a rating are not shown. The result follows rating order.
func Join(item *model.Item, lookup UsernameLookup) []model.DisplayReview {
	l := LedgerOf(item)
	out := make([]model.DisplayReview, 0, len(l.ratings))
	for _, r := range l.ratings {
		name, ok := lookup(r.UserID)
		if !ok || name == "" {
			name = model.UnknownUsername
		}
		dr := model.DisplayReview{
			UserID:    r.UserID,
			Username:  name,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		}
		if rev, ok := l.Review(r.UserID); ok {
			dr.Text = rev.Text
			dr.CreatedAt = rev.CreatedAt
		}
		out = append(out, dr)
	}
	return out
}

// RaterIDs returns the distinct user ids that rated item, in rating order.
func RaterIDs(item *model.Item) []string {
	l := LedgerOf(item)
	ids := make([]string, 0, len(l.ratings))
	for _, r := range l.ratings {
		ids = append(ids, r.UserID)
	}
	return ids
}

// ProfileOf builds the reverse profile of userID over items. Only items the
// user rated contribute; the average is the mean of the user's own ratings.
func ProfileOf(username, userID string, items []model.Item) model.Profile {
	p := model.Profile{Username: username, Reviews: []model.ProfileEntry{}}
	sum := 0
	for i := range items {
		l := LedgerOf(&items[i])
		r, ok := l.Rating(userID)
		if !ok {
			continue
		}
		entry := model.ProfileEntry{
			ItemID:    items[i].ID,
			ItemName:  items[i].Name,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		}
		if rev, ok := l.Review(userID); ok {
			entry.Text = rev.Text
			entry.CreatedAt = rev.CreatedAt
		}
		p.Reviews = append(p.Reviews, entry)
		sum += r.Rating
	}
	p.NumberOfRatings = len(p.Reviews)
	if p.NumberOfRatings > 0 {
		p.AverageRating = float64(sum) / float64(p.NumberOfRatings)
	}
	return p
}
