package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/katalog/internal/model"
)

// CreateItem inserts a new item. An empty ID is filled in.
func (s *Store) CreateItem(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		item.ID = model.NewID()
	}
	doc, err := toItemDoc(item)
	if err != nil {
		return err
	}
	if _, err := s.items.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}

	var doc itemDoc
	err := s.items.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return doc.toModel()
}

// ListItems returns items in insertion order, optionally filtered by category.
func (s *Store) ListItems(ctx context.Context, category model.Category) ([]model.Item, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = string(category)
	}
	return s.findItems(ctx, filter)
}

// ListItemsByUser returns items holding a rating or a review by userID.
func (s *Store) ListItemsByUser(ctx context.Context, userID string) ([]model.Item, error) {
	return s.findItems(ctx, bson.M{"$or": bson.A{
		bson.M{"ratings.userId": userID},
		bson.M{"reviews.userId": userID},
	}})
}

func (s *Store) findItems(ctx context.Context, filter bson.M) ([]model.Item, error) {
	cursor, err := s.items.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []model.Item
	for cursor.Next(ctx) {
		var doc itemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding item: %w", err)
		}
		item, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return items, nil
}

// CountItems returns the number of items.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	n, err := s.items.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// SetFeedback replaces ratings, reviews and averageRating in a single $set.
func (s *Store) SetFeedback(ctx context.Context, id string, fb model.Feedback) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}

	docs := toFeedbackDocs(fb)
	res, err := s.items.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"ratings":       docs.ratings,
			"reviews":       docs.reviews,
			"averageRating": fb.AverageRating,
			"updatedAt":     time.Now().UTC(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("updating item feedback: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteItem removes an item and its image.
func (s *Store) DeleteItem(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}

	res, err := s.items.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	removeImage(ctx, s.images, oid)
	return res.DeletedCount > 0, nil
}

// imageDeleter is the part of *mongo.Collection that image cleanup needs.
type imageDeleter interface {
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// removeImage drops the image stored for an item. The item is already gone
// by then, so a failure leaves an orphaned image and is only logged.
func removeImage(ctx context.Context, images imageDeleter, oid primitive.ObjectID) {
	if _, err := images.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		slog.Warn("item image cleanup failed", "item", oid.Hex(), "error", err)
	}
}

// SetItemImage stores image bytes and points the item's image reference at them.
func (s *Store) SetItemImage(ctx context.Context, id string, data []byte, mime, ref string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}

	res, err := s.items.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"image": ref, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return false, fmt.Errorf("updating item image: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, nil
	}

	_, err = s.images.ReplaceOne(ctx, bson.M{"_id": oid},
		imageDoc{ItemID: oid, Data: data, MIME: mime},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("storing item image: %w", err)
	}
	return true, nil
}

// GetItemImage returns an item's image data and MIME type.
func (s *Store) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, "", nil
	}

	var doc imageDoc
	err := s.images.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("finding item image: %w", err)
	}
	return doc.Data, doc.MIME, nil
}
