package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/testutil"
)

func newUser(email string) *models.User {
	return &models.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "$2a$10$hash",
		Role:      models.RoleCustomer,
	}
}

func TestGormRepo_CreateUser_DuplicateEmail(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, newUser("ada@example.com")))

	err := r.CreateUser(ctx, newUser("ada@example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestGormRepo_GetUser(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()

	u := newUser("ada@example.com")
	require.NoError(t, r.CreateUser(ctx, u))
	require.NotZero(t, u.ID)

	byEmail, err := r.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	_, err = r.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = r.GetUserByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestGormRepo_ListUsers_Paginates(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, r.CreateUser(ctx, newUser(email)))
	}

	total, items, err := r.ListUsers(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "b@example.com", items[0].Email)
}

func TestGormRepo_UpdateUser_SetsTenantAndRole(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()

	tenant := &models.Tenant{Name: "Acme", Address: "1 Main St"}
	require.NoError(t, r.CreateTenant(ctx, tenant))
	u := newUser("ada@example.com")
	require.NoError(t, r.CreateUser(ctx, u))

	role := models.RoleManager
	name := "Augusta"
	updated, err := r.UpdateUser(ctx, u.ID, repo.UserUpdate{FirstName: &name, Role: &role, TenantID: &tenant.ID})
	require.NoError(t, err)

	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, models.RoleManager, updated.Role)
	require.NotNil(t, updated.TenantID)
	assert.Equal(t, tenant.ID, *updated.TenantID)
	require.NotNil(t, updated.Tenant)
	assert.Equal(t, "Acme", updated.Tenant.Name)

	_, err = r.UpdateUser(ctx, u.ID+100, repo.UserUpdate{FirstName: &name})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestGormRepo_UpdateUser_ZeroTenantDetaches(t *testing.T) {
	r := repo.New(testutil.NewDB(t))
	ctx := context.Background()

	tenant := &models.Tenant{Name: "Acme", Address: "1 Main St"}
	require.NoError(t, r.CreateTenant(ctx, tenant))
	u := newUser("ada@example.com")
	u.TenantID = &tenant.ID
	require.NoError(t, r.CreateUser(ctx, u))

	name := "Augusta"
	kept, err := r.UpdateUser(ctx, u.ID, repo.UserUpdate{FirstName: &name})
	require.NoError(t, err)
	require.NotNil(t, kept.TenantID)

	none := uint(0)
	detached, err := r.UpdateUser(ctx, u.ID, repo.UserUpdate{TenantID: &none})
	require.NoError(t, err)
	assert.Nil(t, detached.TenantID)
	assert.Nil(t, detached.Tenant)
	assert.Equal(t, "Augusta", detached.FirstName)
}

func TestGormRepo_DeleteUser_CascadesRefreshTokens(t *testing.T) {
	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()

	u := newUser("ada@example.com")
	require.NoError(t, r.CreateUser(ctx, u))
	_, err := r.PersistRefreshToken(ctx, u.ID, defaultTTL)
	require.NoError(t, err)

	require.NoError(t, r.DeleteUser(ctx, u.ID))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, r.DeleteUser(ctx, u.ID), repo.ErrNotFound)
}
