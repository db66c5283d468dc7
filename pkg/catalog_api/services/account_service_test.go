package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAccounts(t *testing.T) (*services.AccountService, repositories.AdminUserRepository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AdminUser{}))
	repo := repositories.NewAdminUserRepository(db)
	svc := services.NewAccountService(repo, "test-secret")
	return svc, repo, db
}

func seedAdmin(t *testing.T, repo repositories.AdminUserRepository, username, password string) *models.AdminUser {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.AdminUser{Username: username, PasswordHash: string(hash)}
	require.NoError(t, repo.SaveUser(context.Background(), u))
	return u
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	apiErr, ok := err.(problem.APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	return apiErr.Status
}

func TestLogin(t *testing.T) {
	svc, repo, _ := setupAccounts(t)
	ctx := context.Background()
	seedAdmin(t, repo, "admin", "s3cret")

	resp, err := svc.Login(ctx, &models.LoginInput{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.Name)

	_, err = svc.Login(ctx, &models.LoginInput{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, 401, statusOf(t, err))

	// Unknown user looks identical to a wrong password.
	_, err = svc.Login(ctx, &models.LoginInput{Username: "ghost", Password: "s3cret"})
	require.Error(t, err)
	assert.Equal(t, 401, statusOf(t, err))
}

func TestUpdateProfile_PasswordRules(t *testing.T) {
	svc, repo, _ := setupAccounts(t)
	ctx := context.Background()
	u := seedAdmin(t, repo, "admin", "s3cret")

	// New password without the current one is rejected, and nothing is written.
	err := svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{NewPassword: "newpass"})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))

	after, err := repo.FindByID(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, after.PasswordHash)

	// Wrong current password is rejected.
	err = svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{
		CurrentPassword: "wrong", NewPassword: "newpass",
	})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))

	// Correct current password rotates the hash.
	err = svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{
		CurrentPassword: "s3cret", NewPassword: "newpass",
	})
	require.NoError(t, err)

	after, err = repo.FindByID(ctx, u.Id)
	require.NoError(t, err)
	assert.NotEqual(t, u.PasswordHash, after.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("newpass")))

	_, err = svc.Login(ctx, &models.LoginInput{Username: "admin", Password: "newpass"})
	assert.NoError(t, err)
}

func TestUpdateProfile_UsernameConflict(t *testing.T) {
	svc, repo, _ := setupAccounts(t)
	ctx := context.Background()
	u := seedAdmin(t, repo, "admin", "s3cret")
	seedAdmin(t, repo, "taken", "other")

	taken := "taken"
	err := svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{Username: &taken})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))

	// Re-submitting your own username is a no-op, not a conflict.
	same := "admin"
	assert.NoError(t, svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{Username: &same}))

	fresh := "renamed"
	require.NoError(t, svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{Username: &fresh}))
	after, err := repo.FindByID(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", after.Username)
}

func TestUpdateProfile_EmptyPayloadIsNoop(t *testing.T) {
	svc, repo, _ := setupAccounts(t)
	ctx := context.Background()
	u := seedAdmin(t, repo, "admin", "s3cret")

	require.NoError(t, svc.UpdateProfile(ctx, u.Id, &models.UpdateProfileInput{}))

	after, err := repo.FindByID(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, u.Username, after.Username)
	assert.Equal(t, u.PasswordHash, after.PasswordHash)
}

func TestProfile(t *testing.T) {
	svc, repo, _ := setupAccounts(t)
	ctx := context.Background()
	u := seedAdmin(t, repo, "admin", "s3cret")

	p, err := svc.Profile(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Username)

	_, err = svc.Profile(ctx, 9999)
	require.Error(t, err)
	assert.Equal(t, 401, statusOf(t, err))
}
