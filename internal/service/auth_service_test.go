package service

import (
	"context"
	"testing"
	"time"

	"github.com/scosmb/license-console/internal/config"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) (*AuthService, *memstorage.AdminRepository) {
	t.Helper()
	repo := memstorage.NewAdminRepository()
	cfg := &config.JWTConfig{
		Secret:   "test-secret-do-not-use-in-prod",
		Issuer:   "sco-license-console",
		TokenTTL: time.Hour,
	}
	return NewAuthService(repo, cfg, zap.NewNop()), repo
}

func TestLoginAndResolveToken(t *testing.T) {
	svc, repo := newAuthFixture(t)
	user := seedSuperAdmin(t, repo, "root")

	token, loggedIn, err := svc.Login(context.Background(), "root", "initial-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.Username, loggedIn.Username)

	resolved, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, admin.RoleSuperAdmin, resolved.Role)

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo := newAuthFixture(t)
	seedSuperAdmin(t, repo, "root")

	_, _, err := svc.Login(context.Background(), "root", "wrong-password")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "initial-password")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	user := seedSuperAdmin(t, repo, "root")
	seedSuperAdmin(t, repo, "backup")

	user.IsActive = false
	require.NoError(t, repo.Update(context.Background(), user))

	_, _, err := svc.Login(context.Background(), "root", "initial-password")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestResolveTokenRejectsDeactivatedAdmin(t *testing.T) {
	svc, repo := newAuthFixture(t)
	user := seedSuperAdmin(t, repo, "root")
	seedSuperAdmin(t, repo, "backup")

	token, _, err := svc.Login(context.Background(), "root", "initial-password")
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, repo.Update(context.Background(), user))

	_, err = svc.ResolveToken(context.Background(), token)
	assert.ErrorIs(t, err, ierr.ErrUnauthorized)
}

func TestResolveTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ResolveToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}
