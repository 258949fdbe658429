package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/tutorhub/tutor-server/internal/tutorial"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Identifiers are
// ObjectIDs assigned by the driver on insert.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the lookup indexes for the owner and booking queries.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: tutorial.FieldEmail, Value: 1}}},
		{Keys: bson.D{{Key: tutorial.FieldBook, Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create tutorial indexes: %w", err)
	}
	return nil
}

func (m *MongoRepo) find(ctx context.Context, filter interface{}) ([]*tutorial.Tutorial, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find tutorials: %w", err)
	}
	defer cur.Close(ctx)
	out := []*tutorial.Tutorial{}
	for cur.Next(ctx) {
		var t tutorial.Tutorial
		if err := cur.Decode(&t); err != nil {
			return nil, fmt.Errorf("decode tutorial: %w", err)
		}
		out = append(out, &t)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate tutorials: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*tutorial.Tutorial, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoRepo) ListByEmail(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return m.find(ctx, bson.M{tutorial.FieldEmail: email})
}

func (m *MongoRepo) ListByLanguage(ctx context.Context, lang string) ([]*tutorial.Tutorial, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(lang), Options: "i"}
	return m.find(ctx, bson.M{tutorial.FieldLanguage: re})
}

func (m *MongoRepo) ListBookedBy(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return m.find(ctx, bson.M{tutorial.FieldBook: email})
}

func (m *MongoRepo) Get(ctx context.Context, id primitive.ObjectID) (*tutorial.Tutorial, error) {
	var t tutorial.Tutorial
	err := m.col.FindOne(ctx, bson.M{tutorial.FieldID: id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tutorial.ErrNotFound
		}
		return nil, fmt.Errorf("get tutorial %s: %w", id.Hex(), err)
	}
	return &t, nil
}

func (m *MongoRepo) Create(ctx context.Context, t *tutorial.Tutorial) (tutorial.InsertResult, error) {
	res, err := m.col.InsertOne(ctx, t)
	if err != nil {
		return tutorial.InsertResult{}, fmt.Errorf("insert tutorial: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return tutorial.InsertResult{Acknowledged: true, InsertedID: t.ID}, nil
}

func (m *MongoRepo) Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (tutorial.UpdateResult, error) {
	res, err := m.col.UpdateOne(ctx, bson.M{tutorial.FieldID: id}, bson.M{"$set": fields})
	if err != nil {
		return tutorial.UpdateResult{}, fmt.Errorf("update tutorial %s: %w", id.Hex(), err)
	}
	return tutorial.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) (tutorial.DeleteResult, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{tutorial.FieldID: id})
	if err != nil {
		return tutorial.DeleteResult{}, fmt.Errorf("delete tutorial %s: %w", id.Hex(), err)
	}
	return tutorial.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// AddBooking pushes email only when it is not in the list yet, in one update.
// When nothing matched, a projection-only lookup tells a missing tutorial from
// a duplicate booking.
func (m *MongoRepo) AddBooking(ctx context.Context, id primitive.ObjectID, email string) error {
	filter := bson.M{tutorial.FieldID: id, tutorial.FieldBook: bson.M{"$ne": email}}
	update := bson.M{"$push": bson.M{tutorial.FieldBook: email}}
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("book tutorial %s: %w", id.Hex(), err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	opts := options.FindOne().SetProjection(bson.M{tutorial.FieldID: 1})
	err = m.col.FindOne(ctx, bson.M{tutorial.FieldID: id}, opts).Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return tutorial.ErrNotFound
	case err != nil:
		return fmt.Errorf("probe tutorial %s: %w", id.Hex(), err)
	}
	return tutorial.ErrAlreadyBooked
}

func (m *MongoRepo) IncrementReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.UpdateOne(ctx, bson.M{tutorial.FieldID: id}, bson.M{"$inc": bson.M{tutorial.FieldReview: 1}})
	if err != nil {
		return fmt.Errorf("increment review %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 || res.ModifiedCount == 0 {
		return tutorial.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, nil)
}
