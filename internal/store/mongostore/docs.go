package mongostore

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/erazemk/katalog/internal/model"
)

type ratingDoc struct {
	UserID    string    `bson:"userId"`
	Rating    int       `bson:"rating"`
	CreatedAt time.Time `bson:"createdAt"`
}

type reviewDoc struct {
	UserID    string    `bson:"userId"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

// itemDoc is the stored item. Category attributes sit at the top level.
type itemDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description"`
	Price         float64            `bson:"price"`
	Category      string             `bson:"category"`
	Seller        string             `bson:"seller"`
	Image         string             `bson:"image,omitempty"`
	Ratings       []ratingDoc        `bson:"ratings"`
	Reviews       []reviewDoc        `bson:"reviews"`
	AverageRating float64            `bson:"averageRating"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`

	model.Attributes `bson:",inline"`
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	IsAdmin      bool               `bson:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type imageDoc struct {
	ItemID primitive.ObjectID `bson:"_id"`
	Data   []byte             `bson:"data"`
	MIME   string             `bson:"mime"`
}

func toItemDoc(item *model.Item) (itemDoc, error) {
	oid, ok := objectID(item.ID)
	if !ok {
		return itemDoc{}, fmt.Errorf("%w: item id %q", model.ErrInvalidInput, item.ID)
	}
	doc := itemDoc{
		ID:            oid,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		Category:      string(item.Category),
		Seller:        item.Seller,
		Image:         item.Image,
		AverageRating: item.AverageRating,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
	if item.Details != nil {
		doc.Attributes = item.Details.Attributes()
	}
	fb := toFeedbackDocs(item.Feedback())
	doc.Ratings, doc.Reviews = fb.ratings, fb.reviews
	return doc, nil
}

func (d itemDoc) toModel() (*model.Item, error) {
	category := model.Category(d.Category)
	details, err := model.ParseDetails(category, d.Attributes)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", d.ID.Hex(), err)
	}

	item := &model.Item{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		Category:      category,
		Seller:        d.Seller,
		Image:         d.Image,
		Details:       details,
		Ratings:       make([]model.Rating, 0, len(d.Ratings)),
		Reviews:       make([]model.Review, 0, len(d.Reviews)),
		AverageRating: d.AverageRating,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, r := range d.Ratings {
		item.Ratings = append(item.Ratings, model.Rating{UserID: r.UserID, Rating: r.Rating, CreatedAt: r.CreatedAt})
	}
	for _, r := range d.Reviews {
		item.Reviews = append(item.Reviews, model.Review{UserID: r.UserID, Text: r.Text, CreatedAt: r.CreatedAt})
	}
	return item, nil
}

type feedbackDocs struct {
	ratings []ratingDoc
	reviews []reviewDoc
}

// toFeedbackDocs converts feedback; the arrays are never nil so they store as [].
func toFeedbackDocs(fb model.Feedback) feedbackDocs {
	out := feedbackDocs{
		ratings: make([]ratingDoc, 0, len(fb.Ratings)),
		reviews: make([]reviewDoc, 0, len(fb.Reviews)),
	}
	for _, r := range fb.Ratings {
		out.ratings = append(out.ratings, ratingDoc{UserID: r.UserID, Rating: r.Rating, CreatedAt: r.CreatedAt})
	}
	for _, r := range fb.Reviews {
		out.reviews = append(out.reviews, reviewDoc{UserID: r.UserID, Text: r.Text, CreatedAt: r.CreatedAt})
	}
	return out
}

func toUserDoc(u *model.User) (userDoc, error) {
	oid, ok := objectID(u.ID)
	if !ok {
		return userDoc{}, fmt.Errorf("%w: user id %q", model.ErrInvalidInput, u.ID)
	}
	return userDoc{
		ID:           oid,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (d userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
