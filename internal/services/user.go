package services

import (
	"context"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, user types.User) (types.User, error)
	SetRoles(ctx context.Context, id int, roles []types.Role) error
	AddRole(ctx context.Context, id int, role types.Role) error
	SetActive(ctx context.Context, id int, active bool) error
	UpdateVerificationFields(ctx context.Context, id int, state types.VerificationState) error
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	ListIDs(ctx context.Context) ([]int, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.UpdateProfile(ctx, user)
}

func (s *UserService) SetRoles(ctx context.Context, id int, roles []types.Role) error {
	return s.repo.SetRoles(ctx, id, roles)
}

func (s *UserService) SetActive(ctx context.Context, id int, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *UserService) ListIDs(ctx context.Context) ([]int, error) {
	return s.repo.ListIDs(ctx)
}
