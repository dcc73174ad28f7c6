package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erazemk/katalog/internal/model"
	"github.com/erazemk/katalog/internal/rating"
)

// NewItem is the admin input for creating an item. Category attributes are
// given flat, the same way items are rendered.
type NewItem struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Category    model.Category `json:"category"`
	model.Attributes
}

// ImagePath is the image reference stored on an item with an uploaded image.
func ImagePath(itemID string) string {
	return "/api/items/" + itemID + "/image"
}

// ListItems returns every item, or the items in category when it is non-empty.
func (s *Service) ListItems(ctx context.Context, category string) ([]model.Item, error) {
	c := model.Category(category)
	if c != "" && !c.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", model.ErrInvalidInput, category)
	}

	ctx, span := s.span(ctx, "ListItems", attribute.String("category", category))
	items, err := do(s, ctx, func(ctx context.Context) ([]model.Item, error) {
		return s.store.ListItems(ctx, c)
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Item returns an item with its reviews joined to their authors.
func (s *Service) Item(ctx context.Context, id, order string) (*model.ItemDetail, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	ord, err := rating.ParseOrder(order)
	if err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "Item", attribute.String("item.id", id))
	detail, err := s.itemDetail(ctx, id, ord)
	finish(span, err)
	return detail, err
}

func (s *Service) itemDetail(ctx context.Context, id string, ord rating.Order) (*model.ItemDetail, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	names, err := do(s, ctx, func(ctx context.Context) (map[string]string, error) {
		return s.store.Usernames(ctx, rating.RaterIDs(item))
	})
	if err != nil {
		return nil, err
	}

	reviews := rating.Join(item, rating.MapLookup(names))
	rating.SortDisplay(reviews, ord)
	return &model.ItemDetail{Item: item, Reviews: reviews}, nil
}

// getItem loads an item, mapping absence to ErrNotFound.
func (s *Service) getItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := do(s, ctx, func(ctx context.Context) (*model.Item, error) {
		return s.store.GetItem(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", model.ErrNotFound, id)
	}
	return item, nil
}

// Rate sets who's rating on an item and, when review is non-empty, their
// review. An empty review leaves an existing review untouched.
func (s *Service) Rate(ctx context.Context, who model.Principal, itemID string, score int, review string) (*model.Item, error) {
	if err := requireUser(who); err != nil {
		return nil, err
	}
	if err := checkID(itemID); err != nil {
		return nil, err
	}
	if score < model.MinRating || score > model.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", model.ErrInvalidInput, model.MinRating, model.MaxRating)
	}

	ctx, span := s.span(ctx, "Rate", attribute.String("item.id", itemID), attribute.Int("rating", score))
	item, err := s.rate(ctx, who, itemID, score, strings.TrimSpace(review))
	finish(span, err)
	if err != nil {
		return nil, err
	}

	s.feedback.Add(ctx, 1, metric.WithAttributes(attribute.String("action", "rate")))
	slog.Info("item rated", "user", who.Username, "item", itemID, "rating", score)
	return item, nil
}

func (s *Service) rate(ctx context.Context, who model.Principal, itemID string, score int, review string) (*model.Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	fb, err := rating.Upsert(item, who.ID, score, review, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.writeFeedback(ctx, itemID, fb); err != nil {
		return nil, err
	}

	item.ApplyFeedback(fb)
	return item, nil
}

// DeleteReview removes who's rating and review from an item.
func (s *Service) DeleteReview(ctx context.Context, who model.Principal, itemID string) (*model.Item, error) {
	if err := requireUser(who); err != nil {
		return nil, err
	}
	if err := checkID(itemID); err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "DeleteReview", attribute.String("item.id", itemID))
	item, err := s.deleteReview(ctx, who.ID, itemID)
	finish(span, err)
	if err != nil {
		return nil, err
	}

	s.feedback.Add(ctx, 1, metric.WithAttributes(attribute.String("action", "delete")))
	slog.Info("review deleted", "user", who.Username, "item", itemID)
	return item, nil
}

func (s *Service) deleteReview(ctx context.Context, userID, itemID string) (*model.Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	fb, err := rating.Delete(item, userID)
	if err != nil {
		return nil, err
	}
	if err := s.writeFeedback(ctx, itemID, fb); err != nil {
		return nil, err
	}

	item.ApplyFeedback(fb)
	return item, nil
}

// writeFeedback persists ratings, reviews and the average in one update.
func (s *Service) writeFeedback(ctx context.Context, itemID string, fb model.Feedback) error {
	ok, err := do(s, ctx, func(ctx context.Context) (bool, error) {
		return s.store.SetFeedback(ctx, itemID, fb)
	})
	if err != nil {
		return err
	}
	if !ok {
		// Deleted between read and write.
		return fmt.Errorf("%w: item %s", model.ErrNotFound, itemID)
	}
	return nil
}

// CreateItem adds an item sold by the acting admin.
func (s *Service) CreateItem(ctx context.Context, who model.Principal, in NewItem) (*model.Item, error) {
	if err := requireAdmin(who); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", model.ErrInvalidInput)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", model.ErrInvalidInput, in.Category)
	}
	details, err := model.ParseDetails(in.Category, in.Attributes)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &model.Item{
		ID:          model.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Seller:      who.Username,
		Details:     details,
		Ratings:     []model.Rating{},
		Reviews:     []model.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, span := s.span(ctx, "CreateItem", attribute.String("category", string(in.Category)))
	err = call(s, ctx, func(ctx context.Context) error {
		return s.store.CreateItem(ctx, item)
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}

	slog.Info("item created", "user", who.Username, "item", item.ID, "name", item.Name)
	return item, nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, who model.Principal, id string) error {
	if err := requireAdmin(who); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}

	ctx, span := s.span(ctx, "DeleteItem", attribute.String("item.id", id))
	ok, err := do(s, ctx, func(ctx context.Context) (bool, error) {
		return s.store.DeleteItem(ctx, id)
	})
	finish(span, err)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: item %s", model.ErrNotFound, id)
	}

	slog.Info("item deleted", "user", who.Username, "item", id)
	return nil
}

// SetItemImage processes an uploaded picture and attaches it to an item.
func (s *Service) SetItemImage(ctx context.Context, who model.Principal, id string, r io.Reader) (*model.Item, error) {
	if err := requireAdmin(who); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	img, err := s.images.Process(r)
	if err != nil {
		return nil, err
	}

	ctx, span := s.span(ctx, "SetItemImage", attribute.String("item.id", id), attribute.Int("image.bytes", len(img.Data)))
	ok, err := do(s, ctx, func(ctx context.Context) (bool, error) {
		return s.store.SetItemImage(ctx, id, img.Data, img.MIME, ImagePath(id))
	})
	if err == nil && !ok {
		err = fmt.Errorf("%w: item %s", model.ErrNotFound, id)
	}
	var item *model.Item
	if err == nil {
		item, err = s.getItem(ctx, id)
	}
	finish(span, err)
	if err != nil {
		return nil, err
	}

	slog.Info("item image updated", "user", who.Username, "item", id, "width", img.Width, "height", img.Height)
	return item, nil
}

// ItemImage returns an item's stored picture and its MIME type.
func (s *Service) ItemImage(ctx context.Context, id string) ([]byte, string, error) {
	if err := checkID(id); err != nil {
		return nil, "", err
	}

	type image struct {
		data []byte
		mime string
	}
	img, err := do(s, ctx, func(ctx context.Context) (image, error) {
		data, mime, err := s.store.GetItemImage(ctx, id)
		return image{data, mime}, err
	})
	if err != nil {
		return nil, "", err
	}
	if len(img.data) == 0 {
		return nil, "", fmt.Errorf("%w: no image for item %s", model.ErrNotFound, id)
	}
	return img.data, img.mime, nil
}
