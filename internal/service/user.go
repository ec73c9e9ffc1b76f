package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/util"
	pkg_hash "github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type UserAdminStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error)
	UpdateUser(ctx context.Context, id uint, upd repo.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type TenantLookup interface {
	GetTenant(ctx context.Context, id uint) (*models.Tenant, error)
}

// UserService backs the admin user endpoints. Unlike self-service registration it takes the
// role from the caller and issues no tokens.
type UserService struct {
	Store   UserAdminStore
	Tenants TenantLookup
}

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	TenantID  *uint
}

// UpdateUserInput leaves nil fields untouched; TenantID pointing at 0 detaches the user.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *string
	TenantID  *uint
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.create")

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrValidation
	}
	role := in.Role
	if role == "" {
		role = models.RoleManager
	}
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	if err := s.checkTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}

	switch _, err := s.Store.GetUserByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("user_create_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  pwHash,
		Role:      role,
		TenantID:  in.TenantID,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		l.Error("user_create_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("user_created", "user_id", user.ID, "role", role)
	return user, nil
}

func (s *UserService) List(ctx context.Context, page, size int) (util.Page[models.User], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Store.ListUsers(ctx, from, limit)
	if err != nil {
		return util.Page[models.User]{}, err
	}
	return util.NewPage(page, size, total, items), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	if in.Role != nil && !models.IsValidRole(*in.Role) {
		return nil, ErrInvalidRole
	}
	if in.TenantID != nil && *in.TenantID != 0 {
		if err := s.checkTenant(ctx, in.TenantID); err != nil {
			return nil, err
		}
	}

	user, err := s.Store.UpdateUser(ctx, id, repo.UserUpdate{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Role:      in.Role,
		TenantID:  in.TenantID,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("user_updated", "svc", "user.update", "user_id", id)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", "svc", "user.delete", "user_id", id)
	return nil
}

func (s *UserService) checkTenant(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.Tenants.GetTenant(ctx, *id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTenantNotFound
		}
		return err
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
