package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/tutorhub/tutor-server/internal/tutorial"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	tu := &tutorial.Tutorial{Language: "Go", Email: "owner@x.io", Extra: map[string]interface{}{"title": "Gophers"}}
	res, err := r.Create(ctx, tu)
	require.NoError(t, err)
	require.True(t, res.Acknowledged)
	require.False(t, res.InsertedID.IsZero())

	got, err := r.Get(ctx, res.InsertedID)
	require.NoError(t, err)
	require.Equal(t, "Gophers", got.Extra["title"])

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	up, err := r.Update(ctx, res.InsertedID, map[string]interface{}{"title": "Go deep"})
	require.NoError(t, err)
	require.Equal(t, int64(1), up.MatchedCount)
	require.Equal(t, int64(1), up.ModifiedCount)
	got2, err := r.Get(ctx, res.InsertedID)
	require.NoError(t, err)
	require.Equal(t, "Go deep", got2.Extra["title"])

	same, err := r.Update(ctx, res.InsertedID, map[string]interface{}{"title": "Go deep"})
	require.NoError(t, err)
	require.Equal(t, int64(1), same.MatchedCount)
	require.Equal(t, int64(0), same.ModifiedCount)

	del, err := r.Delete(ctx, res.InsertedID)
	require.NoError(t, err)
	require.Equal(t, int64(1), del.DeletedCount)
	_, err = r.Get(ctx, res.InsertedID)
	require.ErrorIs(t, err, tutorial.ErrNotFound)
}

func TestMemoryRepo_MissingIDIsZeroEffect(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id := primitive.NewObjectID()

	up, err := r.Update(ctx, id, map[string]interface{}{"title": "x"})
	require.NoError(t, err)
	require.Equal(t, int64(0), up.MatchedCount)

	del, err := r.Delete(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(0), del.DeletedCount)

	require.ErrorIs(t, r.IncrementReview(ctx, id), tutorial.ErrNotFound)
	require.ErrorIs(t, r.AddBooking(ctx, id, "a@x.io"), tutorial.ErrNotFound)
}

func TestMemoryRepo_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	res, err := r.Create(ctx, &tutorial.Tutorial{Language: "Go", Email: "o@x.io"})
	require.NoError(t, err)
	require.NoError(t, r.AddBooking(ctx, res.InsertedID, "a@x.io"))

	got, err := r.Get(ctx, res.InsertedID)
	require.NoError(t, err)
	got.Book[0] = "mutated@x.io"

	again, err := r.Get(ctx, res.InsertedID)
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.io"}, again.Book)
}

func TestMemoryRepo_Queries(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	py, _ := r.Create(ctx, &tutorial.Tutorial{Language: "Python", Email: "a@x.io"})
	_, _ = r.Create(ctx, &tutorial.Tutorial{Language: "Go", Email: "b@x.io"})
	_, _ = r.Create(ctx, &tutorial.Tutorial{Language: "python", Email: "a@x.io"})

	byLang, err := r.ListByLanguage(ctx, "PY")
	require.NoError(t, err)
	require.Len(t, byLang, 2)

	byOwner, err := r.ListByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	none, err := r.ListBookedBy(ctx, "c@x.io")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	require.NoError(t, r.AddBooking(ctx, py.InsertedID, "c@x.io"))
	booked, err := r.ListBookedBy(ctx, "c@x.io")
	require.NoError(t, err)
	require.Len(t, booked, 1)
	require.Equal(t, py.InsertedID, booked[0].ID)
}

func TestMemoryRepo_BookingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	res, _ := r.Create(ctx, &tutorial.Tutorial{Language: "Go", Email: "o@x.io"})

	require.NoError(t, r.AddBooking(ctx, res.InsertedID, "a@x.io"))
	require.ErrorIs(t, r.AddBooking(ctx, res.InsertedID, "a@x.io"), tutorial.ErrAlreadyBooked)
	require.NoError(t, r.AddBooking(ctx, res.InsertedID, "b@x.io"))

	got, _ := r.Get(ctx, res.InsertedID)
	require.Equal(t, []string{"a@x.io", "b@x.io"}, got.Book)
}

func TestMemoryRepo_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	res, _ := r.Create(ctx, &tutorial.Tutorial{Language: "Go", Email: "o@x.io", Review: 2})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.IncrementReview(ctx, res.InsertedID)
		}()
	}
	wg.Wait()

	got, _ := r.Get(ctx, res.InsertedID)
	require.Equal(t, tutorial.ReviewCount(2+n), got.Review)
}
