package service

import (
	"context"
	"sync"
	"testing"

	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedSuperAdmin(t *testing.T, repo *memstorage.AdminRepository, username string) *admin.User {
	t.Helper()
	u := &admin.User{
		Username: username,
		Email:    username + "@scosmb.test",
		Role:     admin.RoleSuperAdmin,
		IsActive: true,
	}
	require.NoError(t, u.SetPassword("initial-password"))
	_, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestCreateAdminRequiresSuperAdmin(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())

	plainAdmin := &admin.User{Username: "ops", Role: admin.RoleAdmin, IsActive: true}
	_, err := svc.CreateAdmin(context.Background(), plainAdmin, &dto.CreateAdminRequest{
		Username: "newbie",
		Email:    "newbie@scosmb.test",
		Password: "long-enough-pw",
		Role:     admin.RoleAdmin,
	})
	assert.ErrorIs(t, err, ierr.ErrForbidden)
}

func TestCreateAdminHashesPassword(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	created, err := svc.CreateAdmin(context.Background(), root, &dto.CreateAdminRequest{
		Username: "ops",
		Email:    "ops@scosmb.test",
		Password: "long-enough-pw",
		Role:     admin.RoleAdmin,
	})
	require.NoError(t, err)

	assert.NotEqual(t, "long-enough-pw", created.PasswordHash)
	assert.True(t, created.CheckPassword("long-enough-pw"))
	assert.True(t, created.IsActive)
}

func TestDeleteLastActiveSuperAdminRejected(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	err := svc.DeleteAdmin(context.Background(), root, root.ID)
	assert.ErrorIs(t, err, ierr.ErrLastAdmin)

	// With a second active super_admin the delete goes through.
	second := seedSuperAdmin(t, repo, "backup")
	require.NoError(t, svc.DeleteAdmin(context.Background(), second, root.ID))
}

func TestConcurrentDeletesKeepOneSuperAdmin(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	first := seedSuperAdmin(t, repo, "first")
	second := seedSuperAdmin(t, repo, "second")

	// Both deletes pass the count fast path when they start; the store-level
	// guard must still let only one of them through.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []*admin.User{first, second} {
		wg.Add(1)
		go func(i int, target *admin.User) {
			defer wg.Done()
			caller := first
			if target == first {
				caller = second
			}
			errs[i] = svc.DeleteAdmin(context.Background(), caller, target.ID)
		}(i, target)
	}
	wg.Wait()

	var denied, allowed int
	for _, err := range errs {
		if err == nil {
			allowed++
		} else {
			assert.ErrorIs(t, err, ierr.ErrLastAdmin)
			denied++
		}
	}
	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, denied)

	count, err := repo.CountActiveSuperAdmins(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeactivateLastActiveSuperAdminRejected(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	inactive := false
	_, err := svc.UpdateAdmin(context.Background(), root, root.ID, &dto.UpdateAdminRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, ierr.ErrLastAdmin)
}

func TestDemoteLastActiveSuperAdminRejected(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	demoted := admin.RoleAdmin
	_, err := svc.UpdateAdmin(context.Background(), root, root.ID, &dto.UpdateAdminRequest{Role: &demoted})
	assert.ErrorIs(t, err, ierr.ErrLastAdmin)
}

func TestUpdateAdminFields(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	created, err := svc.CreateAdmin(context.Background(), root, &dto.CreateAdminRequest{
		Username: "ops",
		Email:    "ops@scosmb.test",
		Password: "long-enough-pw",
		Role:     admin.RoleAdmin,
	})
	require.NoError(t, err)

	newEmail := "ops-new@scosmb.test"
	newPassword := "rotated-password"
	updated, err := svc.UpdateAdmin(context.Background(), root, created.ID, &dto.UpdateAdminRequest{
		Email:    &newEmail,
		Password: &newPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, newEmail, updated.Email)
	assert.True(t, updated.CheckPassword(newPassword))
	assert.False(t, updated.CheckPassword("long-enough-pw"))
}

func TestDeleteUnknownAdmin(t *testing.T) {
	repo := memstorage.NewAdminRepository()
	svc := NewAdminService(repo, zap.NewNop())
	root := seedSuperAdmin(t, repo, "root")

	other := seedSuperAdmin(t, repo, "other")
	require.NoError(t, svc.DeleteAdmin(context.Background(), root, other.ID))

	err := svc.DeleteAdmin(context.Background(), root, other.ID)
	assert.ErrorIs(t, err, ierr.ErrUserNotFound)
}
