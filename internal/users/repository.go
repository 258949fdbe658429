package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Profile is the stored view of a principal that called the API (mapped from token claims).
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sub       string             `bson:"sub" json:"sub"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProfileRepository defines persistence operations for profiles
type ProfileRepository interface {
	UpsertBySub(ctx context.Context, p *Profile) (*Profile, error)
	GetBySub(ctx context.Context, sub string) (*Profile, error)
}

// MongoProfileRepository implements ProfileRepository using MongoDB
type MongoProfileRepository struct {
	col *mongo.Collection
}

func NewMongoProfileRepository(col *mongo.Collection) *MongoProfileRepository {
	return &MongoProfileRepository{col: col}
}

// UpsertBySub writes email and name, keeping createdAt from the first insert.
func (r *MongoProfileRepository) UpsertBySub(ctx context.Context, p *Profile) (*Profile, error) {
	now := time.Now().UTC()
	filter := bson.M{"sub": p.Sub}
	update := bson.M{
		"$set": bson.M{
			"email":     p.Email,
			"name":      p.Name,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated Profile
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetBySub returns nil without error when no profile exists.
func (r *MongoProfileRepository) GetBySub(ctx context.Context, sub string) (*Profile, error) {
	var p Profile
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
