package model

import "time"

// UnknownUsername is shown for feedback whose author no longer exists.
const UnknownUsername = "unknown"

// DisplayReview is a rating joined with its review and author name.
type DisplayReview struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileEntry is one item a user rated, as seen from the user's profile.
type ProfileEntry struct {
	ItemID    string    `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile aggregates everything a user rated across the catalog.
type Profile struct {
	Username        string         `json:"username"`
	AverageRating   float64        `json:"averageRating"`
	NumberOfRatings int            `json:"numberOfRatings"`
	Reviews         []ProfileEntry `json:"reviews"`
}
