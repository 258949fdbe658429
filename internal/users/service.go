package users

import (
	"context"

	"github.com/tutorhub/tutor-server/pkg/middleware"
)

// Service encapsulates profile-related business logic
type Service struct {
	repo ProfileRepository
}

func NewService(r ProfileRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromPrincipal creates or refreshes the caller's profile.
// Principals without a subject are not stored and yield (nil, nil).
func (s *Service) UpsertFromPrincipal(ctx context.Context, p middleware.Principal) (*Profile, error) {
	if p.Subject == "" {
		return nil, nil
	}
	return s.repo.UpsertBySub(ctx, &Profile{Sub: p.Subject, Email: p.Email, Name: p.Name})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*Profile, error) {
	return s.repo.GetBySub(ctx, sub)
}
