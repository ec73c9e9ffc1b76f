package repo

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/internal/models"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("record already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Tenant{}, &models.User{}, &models.RefreshToken{})
}

// isDuplicate recognises unique violations from gorm's translator, pgx and sqlite.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
