package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/internal/service/audit"
	"github.com/opticheck/screening-api/pkg/authz"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
	"github.com/opticheck/screening-api/pkg/security"
)

type Service struct {
	repo    repository.UserRepository
	hasher  security.PasswordHasher
	auditor *audit.Service
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		auditor: auditor,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest, actor audit.Actor) (*model.User, error) {
	role := authz.Role(req.Role)
	if !authz.Valid(role) {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown role %q", req.Role), nil)
	}

	if existing, _ := s.repo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.BadRequest("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := time.Now()
	user := &model.User{
		Base:         model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		Portal:       req.Portal,
		Status:       model.UserStatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Record(ctx, model.EventTypeUserCreate,
		fmt.Sprintf("user %s created with role %s", user.Email, user.Role), actor)
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest, actor audit.Actor) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Role != nil {
		role := authz.Role(*req.Role)
		if !authz.Valid(role) {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown role %q", *req.Role), nil)
		}
		user.Role = role
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditor.Record(ctx, model.EventTypeUserUpdate,
		fmt.Sprintf("user %s updated", user.Email), actor)
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, model.EventTypeUserDelete,
		fmt.Sprintf("user %s deleted", id), actor)
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return s.repo.List(ctx, filters)
}
