// Package rating maintains the per-item rating and review lists and the
// average rating derived from them.
//
// Ratings and reviews are persisted as two ordered sequences keyed by user
// id. A Ledger indexes both sequences by user so that upserts and deletes
// address entries by key and never create a second entry for the same user.
package rating

import (
	"fmt"
	"time"

	"github.com/erazemk/katalog/internal/model"
)

// Ledger is the in-memory form of an item's feedback.
type Ledger struct {
	ratings   []model.Rating
	reviews   []model.Review
	ratingIdx map[string]int
	reviewIdx map[string]int
}

// NewLedger builds a ledger from persisted sequences. Should a sequence hold
// more than one entry for a user, the first position is kept and the later
// entry's values win.
func NewLedger(ratings []model.Rating, reviews []model.Review) *Ledger {
	l := &Ledger{
		ratings:   make([]model.Rating, 0, len(ratings)),
		reviews:   make([]model.Review, 0, len(reviews)),
		ratingIdx: make(map[string]int, len(ratings)),
		reviewIdx: make(map[string]int, len(reviews)),
	}
	for _, r := range ratings {
		if i, ok := l.ratingIdx[r.UserID]; ok {
			l.ratings[i] = r
			continue
		}
		l.ratingIdx[r.UserID] = len(l.ratings)
		l.ratings = append(l.ratings, r)
	}
	for _, r := range reviews {
		if i, ok := l.reviewIdx[r.UserID]; ok {
			l.reviews[i] = r
			continue
		}
		l.reviewIdx[r.UserID] = len(l.reviews)
		l.reviews = append(l.reviews, r)
	}
	return l
}

// LedgerOf returns the ledger for item's current feedback.
func LedgerOf(item *model.Item) *Ledger {
	return NewLedger(item.Ratings, item.Reviews)
}

// Upsert records score for userID, replacing an existing rating in place.
// A non-empty text replaces or adds the user's review; an empty text leaves
// any existing review untouched.
func (l *Ledger) Upsert(userID string, score int, text string, now time.Time) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", model.ErrInvalidInput)
	}
	if score < model.MinRating || score > model.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", model.ErrInvalidInput, model.MinRating, model.MaxRating)
	}

	if i, ok := l.ratingIdx[userID]; ok {
		l.ratings[i].Rating = score
		l.ratings[i].CreatedAt = now
	} else {
		l.ratingIdx[userID] = len(l.ratings)
		l.ratings = append(l.ratings, model.Rating{UserID: userID, Rating: score, CreatedAt: now})
	}

	if text == "" {
		return nil
	}
	if i, ok := l.reviewIdx[userID]; ok {
		l.reviews[i].Text = text
		l.reviews[i].CreatedAt = now
	} else {
		l.reviewIdx[userID] = len(l.reviews)
		l.reviews = append(l.reviews, model.Review{UserID: userID, Text: text, CreatedAt: now})
	}
	return nil
}

// Remove deletes the rating and the review of userID. It returns
// model.ErrNotFound when the user had neither.
func (l *Ledger) Remove(userID string) error {
	ri, hasRating := l.ratingIdx[userID]
	vi, hasReview := l.reviewIdx[userID]
	if !hasRating && !hasReview {
		return fmt.Errorf("%w: no rating or review by user %s", model.ErrNotFound, userID)
	}

	if hasRating {
		l.ratings = append(l.ratings[:ri], l.ratings[ri+1:]...)
		delete(l.ratingIdx, userID)
		for i := ri; i < len(l.ratings); i++ {
			l.ratingIdx[l.ratings[i].UserID] = i
		}
	}
	if hasReview {
		l.reviews = append(l.reviews[:vi], l.reviews[vi+1:]...)
		delete(l.reviewIdx, userID)
		for i := vi; i < len(l.reviews); i++ {
			l.reviewIdx[l.reviews[i].UserID] = i
		}
	}
	return nil
}

// Rating returns the rating of userID, if any.
func (l *Ledger) Rating(userID string) (model.Rating, bool) {
	i, ok := l.ratingIdx[userID]
	if !ok {
		return model.Rating{}, false
	}
	return l.ratings[i], true
}

// Review returns the review of userID, if any.
func (l *Ledger) Review(userID string) (model.Review, bool) {
	i, ok := l.reviewIdx[userID]
	if !ok {
		return model.Review{}, false
	}
	return l.reviews[i], true
}

// Has reports whether userID has a rating or a review.
func (l *Ledger) Has(userID string) bool {
	_, r := l.ratingIdx[userID]
	_, v := l.reviewIdx[userID]
	return r || v
}

// Ratings returns a copy of the rating sequence in insertion order.
func (l *Ledger) Ratings() []model.Rating {
	out := make([]model.Rating, len(l.ratings))
	copy(out, l.ratings)
	return out
}

// Reviews returns a copy of the review sequence in insertion order.
func (l *Ledger) Reviews() []model.Review {
	out := make([]model.Review, len(l.reviews))
	copy(out, l.reviews)
	return out
}

// Average returns the mean of the current ratings, or 0 if there are none.
func (l *Ledger) Average() float64 {
	return Average(l.ratings)
}

// Feedback returns the sequences and their average, ready to persist.
func (l *Ledger) Feedback() model.Feedback {
	return model.Feedback{
		Ratings:       l.Ratings(),
		Reviews:       l.Reviews(),
		AverageRating: l.Average(),
	}
}

// Average returns the arithmetic mean of ratings, or 0 for none.
func Average(ratings []model.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}
