package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/auth_service/internal/models"
)

// UserUpdate skips nil fields. TenantID pointing at 0 clears the tenant.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *string
	TenantID  *uint
}

// CreateUser relies on the unique email index; a lost race surfaces as ErrDuplicate.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Tenant").First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).Preload("Tenant").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}

	fields := map[string]any{}
	if upd.FirstName != nil {
		fields["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		fields["last_name"] = *upd.LastName
	}
	if upd.Role != nil {
		fields["role"] = *upd.Role
	}
	if upd.TenantID != nil {
		if *upd.TenantID == 0 {
			fields["tenant_id"] = nil
		} else {
			fields["tenant_id"] = *upd.TenantID
		}
	}
	if len(fields) > 0 {
		if err := r.DB.WithContext(ctx).Model(&user).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return r.GetUserByID(ctx, id)
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
