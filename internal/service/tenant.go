package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/util"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type TenantStore interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id uint) (*models.Tenant, error)
	GetTenantByName(ctx context.Context, name string) (*models.Tenant, error)
	ListTenants(ctx context.Context, offset, limit int) (int64, []models.Tenant, error)
	UpdateTenant(ctx context.Context, id uint, name, address string) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, id uint) error
}

type TenantService struct {
	Store TenantStore
}

type TenantInput struct {
	Name    string
	Address string
}

func (in TenantInput) normalized() (TenantInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" || in.Address == "" {
		return in, ErrValidation
	}
	return in, nil
}

func (s *TenantService) Create(ctx context.Context, in TenantInput) (*models.Tenant, error) {
	l := logging.FromContext(ctx).With("svc", "tenant.create")

	in, err := in.normalized()
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{Name: in.Name, Address: in.Address}
	if err := s.Store.CreateTenant(ctx, tenant); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrTenantNameTaken
		}
		l.Error("tenant_create_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("tenant_created", "tenant_id", tenant.ID)
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context, page, size int) (util.Page[models.Tenant], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Store.ListTenants(ctx, from, limit)
	if err != nil {
		return util.Page[models.Tenant]{}, err
	}
	return util.NewPage(page, size, total, items), nil
}

func (s *TenantService) Get(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := s.Store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

// Update rejects a name held by a different tenant. Keeping the current name is allowed.
func (s *TenantService) Update(ctx context.Context, id uint, in TenantInput) (*models.Tenant, error) {
	l := logging.FromContext(ctx).With("svc", "tenant.update")

	in, err := in.normalized()
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	switch other, err := s.Store.GetTenantByName(ctx, in.Name); {
	case err == nil && other.ID != id:
		return nil, ErrTenantNameTaken
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	tenant, err := s.Store.UpdateTenant(ctx, id, in.Name, in.Address)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrTenantNameTaken
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrTenantNotFound
		}
		l.Error("tenant_update_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("tenant_updated", "tenant_id", id)
	return tenant, nil
}

func (s *TenantService) Delete(ctx context.Context, id uint) error {
	if err := s.Store.DeleteTenant(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTenantNotFound
		}
		return err
	}
	logging.FromContext(ctx).Info("tenant_deleted", "svc", "tenant.delete", "tenant_id", id)
	return nil
}
