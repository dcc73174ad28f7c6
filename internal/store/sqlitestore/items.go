package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/katalog/internal/model"
)

// CreateItem inserts a new item document. An empty ID is filled in.
func (s *Store) CreateItem(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		item.ID = model.NewID()
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, category, doc) VALUES (?, ?, ?)`,
		item.ID, string(item.Category), string(doc),
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM items WHERE id = ?`, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return decodeItem(doc)
}

// ListItems returns all items in insertion order, optionally filtered by category.
func (s *Store) ListItems(ctx context.Context, category model.Category) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM items WHERE category = ? ORDER BY rowid`, string(category),
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM items ORDER BY rowid`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return scanItems(rows)
}

// ListItemsByUser returns items holding a rating or a review by userID.
func (s *Store) ListItemsByUser(ctx context.Context, userID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM items
		 WHERE EXISTS (SELECT 1 FROM json_each(items.doc, '$.ratings') r
		               WHERE json_extract(r.value, '$.userId') = ?)
		    OR EXISTS (SELECT 1 FROM json_each(items.doc, '$.reviews') v
		               WHERE json_extract(v.value, '$.userId') = ?)
		 ORDER BY rowid`, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by user: %w", err)
	}
	return scanItems(rows)
}

// CountItems returns the number of items.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// SetFeedback replaces the item's ratings, reviews and average in one statement.
func (s *Store) SetFeedback(ctx context.Context, id string, fb model.Feedback) (bool, error) {
	if fb.Ratings == nil {
		fb.Ratings = []model.Rating{}
	}
	if fb.Reviews == nil {
		fb.Reviews = []model.Review{}
	}
	ratings, err := json.Marshal(fb.Ratings)
	if err != nil {
		return false, fmt.Errorf("encoding ratings: %w", err)
	}
	reviews, err := json.Marshal(fb.Reviews)
	if err != nil {
		return false, fmt.Errorf("encoding reviews: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET doc = json_set(doc,
		     '$.ratings', json(?),
		     '$.reviews', json(?),
		     '$.averageRating', ?,
		     '$.updatedAt', ?)
		 WHERE id = ?`,
		string(ratings), string(reviews), fb.AverageRating, jsonTime(time.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item feedback: %w", err)
	}
	return affected(result)
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return affected(result)
}

// SetItemImage stores image bytes and points the item's image reference at them.
func (s *Store) SetItemImage(ctx context.Context, id string, data []byte, mime, ref string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?,
		     doc = json_set(doc, '$.image', ?, '$.updatedAt', ?)
		 WHERE id = ?`,
		data, mime, ref, jsonTime(time.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}
	return affected(result)
}

// GetItemImage returns an item's image data and MIME type.
func (s *Store) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func decodeItem(doc string) (*model.Item, error) {
	item := &model.Item{}
	if err := json.Unmarshal([]byte(doc), item); err != nil {
		return nil, fmt.Errorf("decoding item: %w", err)
	}
	return item, nil
}

// jsonTime formats t the way encoding/json does so documents stay uniform.
func jsonTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}
