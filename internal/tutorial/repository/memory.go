package repository

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/tutorhub/tutor-server/internal/tutorial"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used for local runs and unit tests.
// Every write holds the lock for its whole read-modify-write, which gives the
// same single-document atomicity MongoDB provides.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]*tutorial.Tutorial
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*tutorial.Tutorial)}
}

func (m *MemoryRepo) filter(match func(*tutorial.Tutorial) bool) []*tutorial.Tutorial {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*tutorial.Tutorial, 0)
	for _, id := range m.order {
		if t := m.store[id]; match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (m *MemoryRepo) List(ctx context.Context) ([]*tutorial.Tutorial, error) {
	return m.filter(func(*tutorial.Tutorial) bool { return true }), nil
}

func (m *MemoryRepo) ListByEmail(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return m.filter(func(t *tutorial.Tutorial) bool { return t.Email == email }), nil
}

func (m *MemoryRepo) ListByLanguage(ctx context.Context, lang string) ([]*tutorial.Tutorial, error) {
	lang = strings.ToLower(lang)
	return m.filter(func(t *tutorial.Tutorial) bool {
		return strings.Contains(strings.ToLower(t.Language), lang)
	}), nil
}

func (m *MemoryRepo) ListBookedBy(ctx context.Context, email string) ([]*tutorial.Tutorial, error) {
	return m.filter(func(t *tutorial.Tutorial) bool { return t.HasBooking(email) }), nil
}

func (m *MemoryRepo) Get(ctx context.Context, id primitive.ObjectID) (*tutorial.Tutorial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.store[id]; ok {
		return t.Clone(), nil
	}
	return nil, tutorial.ErrNotFound
}

func (m *MemoryRepo) Create(ctx context.Context, t *tutorial.Tutorial) (tutorial.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.store[t.ID] = t.Clone()
	m.order = append(m.order, t.ID)
	return tutorial.InsertResult{Acknowledged: true, InsertedID: t.ID}, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (tutorial.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := tutorial.UpdateResult{Acknowledged: true}
	cur, ok := m.store[id]
	if !ok {
		return res, nil
	}
	res.MatchedCount = 1
	next := cur.Clone()
	for k, v := range fields {
		if err := next.Set(k, v); err != nil {
			return tutorial.UpdateResult{}, err
		}
	}
	if !reflect.DeepEqual(cur, next) {
		m.store[id] = next
		res.ModifiedCount = 1
	}
	return res, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id primitive.ObjectID) (tutorial.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := tutorial.DeleteResult{Acknowledged: true}
	if _, ok := m.store[id]; !ok {
		return res, nil
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	res.DeletedCount = 1
	return res, nil
}

func (m *MemoryRepo) AddBooking(ctx context.Context, id primitive.ObjectID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return tutorial.ErrNotFound
	}
	if t.HasBooking(email) {
		return tutorial.ErrAlreadyBooked
	}
	t.Book = append(t.Book, email)
	return nil
}

func (m *MemoryRepo) IncrementReview(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return tutorial.ErrNotFound
	}
	t.Review++
	return nil
}

func (m *MemoryRepo) Ping(ctx context.Context) error { return nil }
