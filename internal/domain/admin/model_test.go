package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	superAdmin := &User{Role: RoleSuperAdmin, IsActive: true}
	plainAdmin := &User{Role: RoleAdmin, IsActive: true}
	inactive := &User{Role: RoleSuperAdmin, IsActive: false}

	allActions := []Action{
		ActionGenerateKeys, ActionListKeys, ActionRevokeKey, ActionEditKey,
		ActionExportKeys, ActionViewDashboard, ActionViewSettings,
		ActionEditSettings, ActionListAdmins, ActionCreateAdmin,
		ActionUpdateAdmin, ActionDeleteAdmin, ActionManageTechUser,
	}

	for _, action := range allActions {
		assert.True(t, superAdmin.Can(action), "super_admin should be allowed %s", action)
		assert.False(t, inactive.Can(action), "inactive user must be denied %s", action)
	}

	assert.True(t, plainAdmin.Can(ActionGenerateKeys))
	assert.True(t, plainAdmin.Can(ActionRevokeKey))
	assert.True(t, plainAdmin.Can(ActionExportKeys))
	assert.True(t, plainAdmin.Can(ActionListAdmins))
	assert.True(t, plainAdmin.Can(ActionViewSettings))
	assert.True(t, plainAdmin.Can(ActionManageTechUser))

	assert.False(t, plainAdmin.Can(ActionCreateAdmin))
	assert.False(t, plainAdmin.Can(ActionUpdateAdmin))
	assert.False(t, plainAdmin.Can(ActionDeleteAdmin))
	assert.False(t, plainAdmin.Can(ActionEditSettings))
}

func TestPasswordHashing(t *testing.T) {
	u := &User{}
	assert.NoError(t, u.SetPassword("correct horse battery staple"))
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotContains(t, u.PasswordHash, "correct horse")

	assert.True(t, u.CheckPassword("correct horse battery staple"))
	assert.False(t, u.CheckPassword("wrong password"))
}
