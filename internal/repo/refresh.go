package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/internal/models"
)

// PersistRefreshToken inserts the row whose id becomes the refresh token's jti, so it runs
// before the token is signed.
func (r *GormRepo) PersistRefreshToken(ctx context.Context, userID uint, ttl time.Duration) (*models.RefreshToken, error) {
	token := models.RefreshToken{
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := r.DB.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken deletes the row. Deleting a missing id is not an error.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, id uint) error {
	if err := r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, id).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// IsRefreshTokenRevoked is true unless a row matches both the token id and its owner.
func (r *GormRepo) IsRefreshTokenRevoked(ctx context.Context, id, userID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error; err != nil {
		return true, err
	}
	return count == 0, nil
}

// RotateRefreshToken creates the successor row and deletes the presented one in a single
// transaction. If the presented row is already gone the transaction rolls back with
// ErrRefreshTokenNotFound, so at most one concurrent rotation of a token succeeds.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldID, userID uint, ttl time.Duration) (*models.RefreshToken, error) {
	var created models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created = models.RefreshToken{
			UserID:    userID,
			ExpiresAt: time.Now().UTC().Add(ttl),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", oldID, userID).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshTokenNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *GormRepo) PurgeExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
