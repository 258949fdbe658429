package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tutorhub/tutor-server/internal/tutorial"
	"github.com/tutorhub/tutor-server/internal/tutorial/repository"
	"github.com/tutorhub/tutor-server/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// protectedFields are never written by a patch. _id is immutable, review only
// moves through IncrementReview, book only through Book, and email is the owner.
var protectedFields = map[string]struct{}{
	tutorial.FieldID:     {},
	tutorial.FieldReview: {},
	tutorial.FieldBook:   {},
	tutorial.FieldEmail:  {},
}

// Service holds the tutorial business rules used by the handler layer.
type Service struct {
	repo     repository.Repository
	validate *validator.Validate
}

func New(repo repository.Repository) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("bson"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{repo: repo, validate: v}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection) *Service {
	return New(repository.NewMongoRepo(col))
}

// ParseID parses a hex ObjectID. Any malformed input yields tutorial.ErrInvalidID.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, tutorial.ErrInvalidID
	}
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]*tutorial.Tutorial, error) {
	return s.repo.List(ctx)
}

func (s *Service) ByLanguage(ctx context.Context, lang string) ([]*tutorial.Tutorial, error) {
	return s.repo.ListByLanguage(ctx, lang)
}

func (s *Service) ByOwner(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return s.repo.ListByEmail(ctx, email)
}

func (s *Service) BookedBy(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return s.repo.ListBookedBy(ctx, email)
}

func (s *Service) Get(ctx context.Context, id string) (*tutorial.Tutorial, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, oid)
}

// OwnerOf returns the email of the tutorial's owner.
func (s *Service) OwnerOf(ctx context.Context, id string) (string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Email, nil
}

// Create validates t and stores it. Identifier, review count and bookings
// supplied by the client are discarded.
func (s *Service) Create(ctx context.Context, t *tutorial.Tutorial) (tutorial.InsertResult, error) {
	t.ID = primitive.NilObjectID
	t.Review = 0
	t.Book = nil
	if err := s.validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return tutorial.InsertResult{}, validationError(verrs)
		}
		return tutorial.InsertResult{}, fmt.Errorf("validate tutorial: %w", err)
	}
	return s.repo.Create(ctx, t)
}

// Patch applies fields with $set semantics after dropping protected keys.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]interface{}) (tutorial.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return tutorial.UpdateResult{}, err
	}
	clean := make(map[string]interface{}, len(fields))
	var check tutorial.Tutorial
	var problems []string
	for k, v := range fields {
		if _, skip := protectedFields[k]; skip || k == "" {
			continue
		}
		// Dotted paths and operators would reach into protected fields once sent as $set.
		if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			problems = append(problems, fmt.Sprintf("field %s is not a valid field name", k))
			continue
		}
		if err := check.Set(k, v); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if k == tutorial.FieldLanguage && strings.TrimSpace(check.Language) == "" {
			problems = append(problems, "field language is required")
			continue
		}
		clean[k] = v
	}
	if len(problems) > 0 {
		return tutorial.UpdateResult{}, &tutorial.ValidationError{Fields: problems}
	}
	if len(clean) == 0 {
		return tutorial.UpdateResult{}, tutorial.ErrEmptyPatch
	}
	return s.repo.Update(ctx, oid, clean)
}

func (s *Service) Delete(ctx context.Context, id string) (tutorial.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return tutorial.DeleteResult{}, err
	}
	return s.repo.Delete(ctx, oid)
}

// Book records req.UserEmail on the tutorial's book list. A second booking by
// the same email returns tutorial.ErrAlreadyBooked and changes nothing.
func (s *Service) Book(ctx context.Context, req tutorial.BookingRequest) error {
	if req.TutorialID == "" || req.UserEmail == "" {
		return tutorial.ErrMissingBookingFields
	}
	oid, err := ParseID(req.TutorialID)
	if err != nil {
		return err
	}
	err = s.repo.AddBooking(ctx, oid, req.UserEmail)
	switch {
	case err == nil:
		metrics.Bookings.WithLabelValues(metrics.BookingBooked).Inc()
	case errors.Is(err, tutorial.ErrAlreadyBooked):
		metrics.Bookings.WithLabelValues(metrics.BookingDuplicate).Inc()
	case errors.Is(err, tutorial.ErrNotFound):
		metrics.Bookings.WithLabelValues(metrics.BookingNotFound).Inc()
	}
	return err
}

func (s *Service) IncrementReview(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.IncrementReview(ctx, oid); err != nil {
		return err
	}
	metrics.Reviews.Inc()
	return nil
}

// SetImage stores the object key of the tutorial's cover.
func (s *Service) SetImage(ctx context.Context, id string, key string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	res, err := s.repo.Update(ctx, oid, map[string]interface{}{tutorial.FieldImage: key})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return tutorial.ErrNotFound
	}
	return nil
}

// Stats reduces the whole collection. Languages are counted case-insensitively;
// empty languages and emails are not counted.
func (s *Service) Stats(ctx context.Context) (tutorial.Stats, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return tutorial.Stats{}, err
	}
	langs := make(map[string]struct{})
	users := make(map[string]struct{})
	st := tutorial.Stats{TotalTutorials: len(list)}
	for _, t := range list {
		st.TotalReviews += int64(t.Review)
		if t.Language != "" {
			langs[strings.ToLower(t.Language)] = struct{}{}
		}
		if t.Email != "" {
			users[t.Email] = struct{}{}
		}
	}
	st.TotalLanguages = len(langs)
	st.TotalUsers = len(users)
	return st, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func validationError(errs validator.ValidationErrors) *tutorial.ValidationError {
	out := &tutorial.ValidationError{}
	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			out.Fields = append(out.Fields, fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			out.Fields = append(out.Fields, fmt.Sprintf("field %s must be a valid email address", e.Field()))
		default:
			out.Fields = append(out.Fields, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}
	return out
}
