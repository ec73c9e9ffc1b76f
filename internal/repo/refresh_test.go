package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/testutil"
)

const defaultTTL = 365 * 24 * time.Hour

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := newUser(email)
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestGormRepo_PersistRefreshToken(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "ada@example.com")

	first, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)
	second, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, u.ID, first.UserID)
	assert.WithinDuration(t, time.Now().Add(defaultTTL), first.ExpiresAt, 5*time.Second)
}

func TestGormRepo_IsRefreshTokenRevoked(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	owner := seedUser(t, r, "ada@example.com")
	other := seedUser(t, r, "bob@example.com")

	tok, err := r.PersistRefreshToken(ctx, owner.ID, defaultTTL)
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      uint
		userID  uint
		revoked bool
	}{
		{name: "matching row", id: tok.ID, userID: owner.ID, revoked: false},
		{name: "wrong owner", id: tok.ID, userID: other.ID, revoked: true},
		{name: "unknown id", id: tok.ID + 100, userID: owner.ID, revoked: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked, err := r.IsRefreshTokenRevoked(ctx, tt.id, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.revoked, revoked)
		})
	}
}

func TestGormRepo_RevokeRefreshToken_Idempotent(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "ada@example.com")

	tok, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)

	require.NoError(t, r.RevokeRefreshToken(ctx, tok.ID))
	require.NoError(t, r.RevokeRefreshToken(ctx, tok.ID))

	revoked, err := r.IsRefreshTokenRevoked(ctx, tok.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestGormRepo_RotateRefreshToken(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "ada@example.com")

	old, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)

	next, err := r.RotateRefreshToken(ctx, old.ID, u.ID, defaultTTL)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, next.ID)

	revoked, err := r.IsRefreshTokenRevoked(ctx, old.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRefreshTokenRevoked(ctx, next.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

// A second rotation of an already rotated token must not mint another live row.
func TestGormRepo_RotateRefreshToken_StaleTokenRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	u := seedUser(t, r, "ada@example.com")

	old, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)
	_, err = r.RotateRefreshToken(ctx, old.ID, u.ID, defaultTTL)
	require.NoError(t, err)

	next, err := r.RotateRefreshToken(ctx, old.ID, u.ID, defaultTTL)
	require.ErrorIs(t, err, repo.ErrRefreshTokenNotFound)
	assert.Nil(t, next)

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormRepo_RotateRefreshToken_WrongOwner(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	owner := seedUser(t, r, "ada@example.com")
	other := seedUser(t, r, "bob@example.com")

	old, err := r.PersistRefreshToken(ctx, owner.ID, defaultTTL)
	require.NoError(t, err)

	_, err = r.RotateRefreshToken(ctx, old.ID, other.ID, defaultTTL)
	require.ErrorIs(t, err, repo.ErrRefreshTokenNotFound)

	revoked, err := r.IsRefreshTokenRevoked(ctx, old.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestGormRepo_PurgeExpiredRefreshTokens(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "ada@example.com")

	_, err := r.PersistRefreshToken(ctx, u.ID, -time.Hour)
	require.NoError(t, err)
	live, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)

	purged, err := r.PurgeExpiredRefreshTokens(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	revoked, err := r.IsRefreshTokenRevoked(ctx, live.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}
