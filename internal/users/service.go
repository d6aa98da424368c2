package users

import (
	"context"
)

// RepositoryPort defines data access methods for user records.
type RepositoryPort interface {
	Create(ctx context.Context, in Input) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context, page, pageSize int) ([]User, int64, error)
	ListAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, in Input) error
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, batch []User) (int64, error)
}

// Service handles user record business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new user.
func (s *Service) Create(ctx context.Context, in Input) (User, map[string]string, error) {
	if errs := in.Validate(); errs != nil {
		return User{}, errs, nil
	}
	u, err := s.repo.Create(ctx, in)
	if err != nil {
		return User{}, nil, err
	}
	return u, nil, nil
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of users plus the total count.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]User, int64, error) {
	return s.repo.List(ctx, page, pageSize)
}

// ListAll returns every user, newest first.
func (s *Service) ListAll(ctx context.Context) ([]User, error) {
	return s.repo.ListAll(ctx)
}

// Update validates and overwrites an existing user's fields.
func (s *Service) Update(ctx context.Context, id int64, in Input) (map[string]string, error) {
	if errs := in.Validate(); errs != nil {
		return errs, nil
	}
	return nil, s.repo.Update(ctx, id, in)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
