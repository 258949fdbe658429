package repository

import (
	"context"
	"testing"

	"github.com/tutorhub/tutor-server/internal/tutorial"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("list decodes documents", func(mt *mtest.T) {
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id1}, {Key: "language", Value: "Go"}, {Key: "email", Value: "a@x.io"}, {Key: "review", Value: "4"}},
			bson.D{{Key: "_id", Value: id2}, {Key: "language", Value: "Rust"}, {Key: "email", Value: "b@x.io"}, {Key: "price", Value: 20}},
		))
		repo := NewMongoRepo(mt.Coll)
		list, err := repo.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.Equal(mt, id1, list[0].ID)
		require.Equal(mt, tutorial.ReviewCount(4), list[0].Review)
		require.Equal(mt, "Rust", list[1].Language)
		require.EqualValues(mt, 20, list[1].Extra["price"])
	})

	mt.Run("empty result is not nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		list, err := NewMongoRepo(mt.Coll).ListBookedBy(ctx, "nobody@x.io")
		require.NoError(mt, err)
		require.NotNil(mt, list)
		require.Empty(mt, list)
	})

	mt.Run("get maps no documents to not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		_, err := NewMongoRepo(mt.Coll).Get(ctx, primitive.NewObjectID())
		require.ErrorIs(mt, err, tutorial.ErrNotFound)
	})

	mt.Run("create assigns inserted id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		tu := &tutorial.Tutorial{Language: "Go", Email: "a@x.io"}
		res, err := NewMongoRepo(mt.Coll).Create(ctx, tu)
		require.NoError(mt, err)
		require.True(mt, res.Acknowledged)
		require.False(mt, tu.ID.IsZero())
		require.Equal(mt, tu.ID, res.InsertedID)
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		_, err := NewMongoRepo(mt.Coll).Create(ctx, &tutorial.Tutorial{Language: "Go", Email: "a@x.io"})
		require.Error(mt, err)
	})

	mt.Run("update reports counts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		res, err := NewMongoRepo(mt.Coll).Update(ctx, primitive.NewObjectID(), map[string]interface{}{"title": "x"})
		require.NoError(mt, err)
		require.Equal(mt, int64(1), res.MatchedCount)
		require.Equal(mt, int64(1), res.ModifiedCount)
	})

	mt.Run("delete reports count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		res, err := NewMongoRepo(mt.Coll).Delete(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		require.Equal(mt, int64(0), res.DeletedCount)
	})

	mt.Run("booking succeeds when update matches", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, NewMongoRepo(mt.Coll).AddBooking(ctx, primitive.NewObjectID(), "a@x.io"))
	})

	mt.Run("booking twice is already booked", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "_id", Value: id}}),
		)
		err := NewMongoRepo(mt.Coll).AddBooking(ctx, id, "a@x.io")
		require.ErrorIs(mt, err, tutorial.ErrAlreadyBooked)
	})

	mt.Run("booking a missing tutorial is not found", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)
		err := NewMongoRepo(mt.Coll).AddBooking(ctx, primitive.NewObjectID(), "a@x.io")
		require.ErrorIs(mt, err, tutorial.ErrNotFound)
	})

	mt.Run("increment review", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, NewMongoRepo(mt.Coll).IncrementReview(ctx, primitive.NewObjectID()))
	})

	mt.Run("increment review on missing tutorial", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := NewMongoRepo(mt.Coll).IncrementReview(ctx, primitive.NewObjectID())
		require.ErrorIs(mt, err, tutorial.ErrNotFound)
	})
}
