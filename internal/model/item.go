package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item is a catalog listing with its embedded feedback.
type Item struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	Category      Category
	Seller        string
	Image         string
	Details       Details
	Ratings       []Rating
	Reviews       []Review
	AverageRating float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Rating is one user's score on an item. At most one per user.
type Rating struct {
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is one user's comment on an item. At most one per user.
type Review struct {
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 10
)

// Feedback is the part of an item written by rate and delete actions.
// The three fields are always persisted together.
type Feedback struct {
	Ratings       []Rating `json:"ratings"`
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"averageRating"`
}

// Feedback returns the item's current feedback fields.
func (i *Item) Feedback() Feedback {
	return Feedback{Ratings: i.Ratings, Reviews: i.Reviews, AverageRating: i.AverageRating}
}

// ApplyFeedback replaces the item's feedback fields.
func (i *Item) ApplyFeedback(fb Feedback) {
	i.Ratings = fb.Ratings
	i.Reviews = fb.Reviews
	i.AverageRating = fb.AverageRating
}

// itemJSON is the wire form of Item with the category details flattened.
type itemJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      Category  `json:"category"`
	Seller        string    `json:"seller"`
	Image         string    `json:"image"`
	Ratings       []Rating  `json:"ratings"`
	Reviews       []Review  `json:"reviews"`
	AverageRating float64   `json:"averageRating"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Attributes
}

// MarshalJSON flattens the category details into the item object.
func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		ID:            i.ID,
		Name:          i.Name,
		Description:   i.Description,
		Price:         i.Price,
		Category:      i.Category,
		Seller:        i.Seller,
		Image:         i.Image,
		Ratings:       i.Ratings,
		Reviews:       i.Reviews,
		AverageRating: i.AverageRating,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
	if i.Details != nil {
		out.Attributes = i.Details.Attributes()
	}
	if out.Ratings == nil {
		out.Ratings = []Rating{}
	}
	if out.Reviews == nil {
		out.Reviews = []Review{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the flat item object and rebuilds its details.
func (i *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	details, err := ParseDetails(in.Category, in.Attributes)
	if err != nil {
		return fmt.Errorf("item %s: %w", in.ID, err)
	}
	*i = Item{
		ID:            in.ID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		Seller:        in.Seller,
		Image:         in.Image,
		Details:       details,
		Ratings:       in.Ratings,
		Reviews:       in.Reviews,
		AverageRating: in.AverageRating,
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.UpdatedAt,
	}
	return nil
}

// ItemDetail is an item together with its display-ready reviews.
type ItemDetail struct {
	Item    *Item
	Reviews []DisplayReview
}

// MarshalJSON renders the item with its raw reviews replaced by the joined ones.
func (d ItemDetail) MarshalJSON() ([]byte, error) {
	if d.Item == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(d.Item)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	reviews := d.Reviews
	if reviews == nil {
		reviews = []DisplayReview{}
	}
	joined, err := json.Marshal(reviews)
	if err != nil {
		return nil, err
	}
	fields["reviews"] = joined
	return json.Marshal(fields)
}
