package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/auth_service/internal/models"
)

func (r *GormRepo) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *GormRepo) GetTenant(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.DB.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

func (r *GormRepo) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&tenant).Error; err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

func (r *GormRepo) ListTenants(ctx context.Context, offset, limit int) (int64, []models.Tenant, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Tenant, 0, limit)
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateTenant(ctx context.Context, id uint, name, address string) (*models.Tenant, error) {
	tenant, err := r.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Name = name
	tenant.Address = address
	if err := r.DB.WithContext(ctx).Save(tenant).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	return tenant, nil
}

func (r *GormRepo) DeleteTenant(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Tenant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
