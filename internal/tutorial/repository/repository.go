package repository

import (
	"context"

	"github.com/tutorhub/tutor-server/internal/tutorial"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the gateway to the tutorials collection. MemoryRepo and MongoRepo
// implement it with the same semantics; lists come back in store order and are
// never nil.
type Repository interface {
	List(ctx context.Context) ([]*tutorial.Tutorial, error)
	ListByEmail(ctx context.Context, email string) ([]*tutorial.Tutorial, error)
	// ListByLanguage matches lang as a case-insensitive substring of language.
	ListByLanguage(ctx context.Context, lang string) ([]*tutorial.Tutorial, error)
	ListBookedBy(ctx context.Context, email string) ([]*tutorial.Tutorial, error)
	Get(ctx context.Context, id primitive.ObjectID) (*tutorial.Tutorial, error)
	Create(ctx context.Context, t *tutorial.Tutorial) (tutorial.InsertResult, error)
	Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (tutorial.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (tutorial.DeleteResult, error)
	// AddBooking appends email to the book list only if absent, atomically.
	// Returns tutorial.ErrNotFound or tutorial.ErrAlreadyBooked.
	AddBooking(ctx context.Context, id primitive.ObjectID, email string) error
	// IncrementReview adds exactly one to review. Returns tutorial.ErrNotFound.
	IncrementReview(ctx context.Context, id primitive.ObjectID) error
	Ping(ctx context.Context) error
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
