package rating

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/katalog/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func itemWith(ratings []model.Rating, reviews []model.Review) *model.Item {
	return &model.Item{
		ID:            model.NewID(),
		Name:          "Test Item",
		Category:      model.CategoryVinyls,
		Details:       model.VinylDetails{Age: 10},
		Ratings:       ratings,
		Reviews:       reviews,
		AverageRating: Average(ratings),
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	item := itemWith([]model.Rating{
		{UserID: "u1", Rating: 8, CreatedAt: t0},
		{UserID: "u2", Rating: 6, CreatedAt: t0},
	}, []model.Review{
		{UserID: "u1", Text: "great pressing", CreatedAt: t0},
	})
	assert.Equal(t, 7.0, item.AverageRating)

	later := t0.Add(time.Hour)
	fb, err := Upsert(item, "u1", 10, "", later)
	require.NoError(t, err)

	require.Len(t, fb.Ratings, 2)
	assert.Equal(t, "u1", fb.Ratings[0].UserID)
	assert.Equal(t, 10, fb.Ratings[0].Rating)
	assert.Equal(t, later, fb.Ratings[0].CreatedAt)
	assert.Equal(t, "u2", fb.Ratings[1].UserID)
	assert.Equal(t, 8.0, fb.AverageRating)

	// Review untouched when no text is given.
	require.Len(t, fb.Reviews, 1)
	assert.Equal(t, "great pressing", fb.Reviews[0].Text)
	assert.Equal(t, t0, fb.Reviews[0].CreatedAt)

	// The input item is not modified.
	assert.Equal(t, 8, item.Ratings[0].Rating)
}

func TestUpsertAppendsNewUser(t *testing.T) {
	item := itemWith([]model.Rating{{UserID: "u1", Rating: 4, CreatedAt: t0}}, nil)

	fb, err := Upsert(item, "u2", 6, "solid", t0)
	require.NoError(t, err)

	require.Len(t, fb.Ratings, 2)
	assert.Equal(t, "u2", fb.Ratings[1].UserID)
	require.Len(t, fb.Reviews, 1)
	assert.Equal(t, "u2", fb.Reviews[0].UserID)
	assert.Equal(t, "solid", fb.Reviews[0].Text)
	assert.Equal(t, 5.0, fb.AverageRating)
}

func TestUpsertUpdatesExistingReview(t *testing.T) {
	item := itemWith(
		[]model.Rating{{UserID: "u1", Rating: 4, CreatedAt: t0}},
		[]model.Review{{UserID: "u1", Text: "meh", CreatedAt: t0}},
	)

	later := t0.Add(time.Minute)
	fb, err := Upsert(item, "u1", 9, "grew on me", later)
	require.NoError(t, err)

	require.Len(t, fb.Reviews, 1)
	assert.Equal(t, "grew on me", fb.Reviews[0].Text)
	assert.Equal(t, later, fb.Reviews[0].CreatedAt)
}

func TestUpsertRejectsOutOfRange(t *testing.T) {
	item := itemWith(nil, nil)
	for _, score := range []int{-1, 0, 11, 100} {
		_, err := Upsert(item, "u1", score, "", t0)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "score %d", score)
	}
	for _, score := range []int{1, 10} {
		_, err := Upsert(item, "u1", score, "", t0)
		assert.NoError(t, err, "score %d", score)
	}
}

func TestDeleteLastRating(t *testing.T) {
	item := itemWith([]model.Rating{{UserID: "u1", Rating: 5, CreatedAt: t0}}, nil)

	fb, err := Delete(item, "u1")
	require.NoError(t, err)
	assert.Empty(t, fb.Ratings)
	assert.Empty(t, fb.Reviews)
	assert.Equal(t, 0.0, fb.AverageRating)
}

func TestDeleteRatingWithoutReview(t *testing.T) {
	item := itemWith(
		[]model.Rating{{UserID: "u1", Rating: 2}, {UserID: "u2", Rating: 8}},
		[]model.Review{{UserID: "u2", Text: "keep me"}},
	)

	fb, err := Delete(item, "u1")
	require.NoError(t, err)
	require.Len(t, fb.Ratings, 1)
	assert.Equal(t, "u2", fb.Ratings[0].UserID)
	require.Len(t, fb.Reviews, 1)
	assert.Equal(t, "keep me", fb.Reviews[0].Text)
	assert.Equal(t, 8.0, fb.AverageRating)
}

func TestDeleteNothingIsNotFound(t *testing.T) {
	item := itemWith([]model.Rating{{UserID: "u1", Rating: 5}}, nil)

	_, err := Delete(item, "u2")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNewLedgerCollapsesDuplicates(t *testing.T) {
	l := NewLedger([]model.Rating{
		{UserID: "u1", Rating: 2},
		{UserID: "u2", Rating: 6},
		{UserID: "u1", Rating: 10},
	}, nil)

	ratings := l.Ratings()
	require.Len(t, ratings, 2)
	assert.Equal(t, "u1", ratings[0].UserID)
	assert.Equal(t, 10, ratings[0].Rating)
	assert.Equal(t, 8.0, l.Average())
}

func TestRemoveKeepsIndexConsistent(t *testing.T) {
	l := NewLedger([]model.Rating{
		{UserID: "a", Rating: 1},
		{UserID: "b", Rating: 2},
		{UserID: "c", Rating: 3},
	}, nil)

	require.NoError(t, l.Remove("a"))
	require.NoError(t, l.Upsert("c", 9, "", t0))

	ratings := l.Ratings()
	require.Len(t, ratings, 2)
	assert.Equal(t, "b", ratings[0].UserID)
	assert.Equal(t, "c", ratings[1].UserID)
	assert.Equal(t, 9, ratings[1].Rating)
}

// Random sequences of upserts and deletes keep the average equal to the mean
// and never produce two entries for one user.
func TestAverageInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	users := []string{"u1", "u2", "u3", "u4", "u5"}
	item := itemWith(nil, nil)

	for step := 0; step < 500; step++ {
		user := users[rng.Intn(len(users))]
		var (
			fb  model.Feedback
			err error
		)
		if rng.Intn(3) == 0 {
			fb, err = Delete(item, user)
			if err != nil {
				require.ErrorIs(t, err, model.ErrNotFound)
				continue
			}
		} else {
			text := ""
			if rng.Intn(2) == 0 {
				text = fmt.Sprintf("review %d", step)
			}
			fb, err = Upsert(item, user, 1+rng.Intn(10), text, t0.Add(time.Duration(step)*time.Second))
			require.NoError(t, err)
		}
		item.ApplyFeedback(fb)

		assert.InDelta(t, Average(item.Ratings), item.AverageRating, 1e-9)
		seen := map[string]bool{}
		for _, r := range item.Ratings {
			require.False(t, seen[r.UserID], "duplicate rating for %s", r.UserID)
			seen[r.UserID] = true
		}
		seen = map[string]bool{}
		for _, r := range item.Reviews {
			require.False(t, seen[r.UserID], "duplicate review for %s", r.UserID)
			seen[r.UserID] = true
		}
	}
}

func TestJoin(t *testing.T) {
	item := itemWith(
		[]model.Rating{
			{UserID: "u1", Rating: 8, CreatedAt: t0},
			{UserID: "u2", Rating: 3, CreatedAt: t0.Add(time.Hour)},
			{UserID: "gone", Rating: 5, CreatedAt: t0},
		},
		[]model.Review{
			{UserID: "u2", Text: "not for me", CreatedAt: t0.Add(2 * time.Hour)},
			{UserID: "u9", Text: "orphan review", CreatedAt: t0},
		},
	)
	names := MapLookup(map[string]string{"u1": "alice", "u2": "bob"})

	got := Join(item, names)
	require.Len(t, got, 3)

	assert.Equal(t, model.DisplayReview{UserID: "u1", Username: "alice", Rating: 8, Text: "", CreatedAt: t0}, got[0])
	assert.Equal(t, model.DisplayReview{UserID: "u2", Username: "bob", Rating: 3, Text: "not for me", CreatedAt: t0.Add(2 * time.Hour)}, got[1])
	assert.Equal(t, model.UnknownUsername, got[2].Username)

	for _, dr := range got {
		assert.NotEqual(t, "u9", dr.UserID, "reviews without a rating are not displayed")
		assert.GreaterOrEqual(t, dr.Rating, model.MinRating)
	}
}

func TestProfileOf(t *testing.T) {
	items := []model.Item{
		*itemWith(
			[]model.Rating{{UserID: "u1", Rating: 8, CreatedAt: t0}, {UserID: "u2", Rating: 2}},
			[]model.Review{{UserID: "u1", Text: "lovely", CreatedAt: t0.Add(time.Hour)}},
		),
		*itemWith([]model.Rating{{UserID: "u2", Rating: 7}}, []model.Review{{UserID: "u1", Text: "only reviewed"}}),
		*itemWith([]model.Rating{{UserID: "u1", Rating: 4, CreatedAt: t0.Add(3 * time.Hour)}}, nil),
	}

	p := ProfileOf("alice", "u1", items)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 2, p.NumberOfRatings)
	assert.Equal(t, 6.0, p.AverageRating)
	require.Len(t, p.Reviews, 2)
	assert.Equal(t, items[0].ID, p.Reviews[0].ItemID)
	assert.Equal(t, "lovely", p.Reviews[0].Text)
	assert.Equal(t, t0.Add(time.Hour), p.Reviews[0].CreatedAt)
	assert.Equal(t, items[2].ID, p.Reviews[1].ItemID)
	assert.Equal(t, "", p.Reviews[1].Text)

	empty := ProfileOf("nobody", "u9", items)
	assert.Equal(t, 0, empty.NumberOfRatings)
	assert.Equal(t, 0.0, empty.AverageRating)
	assert.NotNil(t, empty.Reviews)
}

func TestSortDisplay(t *testing.T) {
	reviews := []model.DisplayReview{
		{UserID: "b", CreatedAt: t0.Add(time.Hour)},
		{UserID: "a", CreatedAt: t0},
		{UserID: "c", CreatedAt: t0.Add(2 * time.Hour)},
	}

	SortDisplay(reviews, OrderNewest)
	assert.Equal(t, []string{"c", "b", "a"}, displayIDs(reviews))

	SortDisplay(reviews, OrderOldest)
	assert.Equal(t, []string{"a", "b", "c"}, displayIDs(reviews))
}

func TestParseOrder(t *testing.T) {
	for _, s := range []string{"", "newest", "oldest"} {
		_, err := ParseOrder(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseOrder("random")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func displayIDs(reviews []model.DisplayReview) []string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.UserID
	}
	return ids
}
