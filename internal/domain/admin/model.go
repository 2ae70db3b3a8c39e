package admin

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Action names a console operation a caller may or may not perform. The
// allow-list below is the authorization policy; handlers never infer
// permissions from anything else.
type Action string

const (
	ActionGenerateKeys   Action = "keys:generate"
	ActionListKeys       Action = "keys:list"
	ActionRevokeKey      Action = "keys:revoke"
	ActionEditKey        Action = "keys:edit"
	ActionExportKeys     Action = "keys:export"
	ActionViewDashboard  Action = "dashboard:view"
	ActionViewSettings   Action = "settings:view"
	ActionEditSettings   Action = "settings:edit"
	ActionListAdmins     Action = "admins:list"
	ActionCreateAdmin    Action = "admins:create"
	ActionUpdateAdmin    Action = "admins:update"
	ActionDeleteAdmin    Action = "admins:delete"
	ActionManageTechUser Action = "tech:manage"
)

// superAdminOnly holds the actions withheld from plain admins.
var superAdminOnly = map[Action]bool{
	ActionCreateAdmin:  true,
	ActionUpdateAdmin:  true,
	ActionDeleteAdmin:  true,
	ActionEditSettings: true,
}

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// Can reports whether the user is allowed to perform the action. Inactive
// accounts are denied everything regardless of role.
func (u *User) Can(action Action) bool {
	if !u.IsActive {
		return false
	}
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return !superAdminOnly[action]
	default:
		return false
	}
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
