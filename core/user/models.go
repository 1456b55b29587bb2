package user

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ratiba/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles          = []Role{RoleStudent, RoleTeacher, RoleAdmin}
	RegisterableRoles = []Role{RoleStudent, RoleTeacher}

	// labels found in tables written by the first version of the app
	legacyRoles = map[string]Role{
		"학생":  RoleStudent,
		"선생님": RoleTeacher,
		"관리자": RoleAdmin,
	}
)

// ParseRole maps a stored or submitted role label to a Role.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if role, ok := legacyRoles[s]; ok {
		return role, true
	}
	role := Role(strings.ToLower(s))
	for _, r := range AllRoles {
		if role == r {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

type User struct {
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
	Role         Role   `json:"role"`
	DisplayName  string `json:"display_name,omitempty"` // teachers only
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }

func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Attribution is the creator name shown on the user's schedules.
// Teachers sharing a schedule appear under their display name when they have one.
func (u User) Attribution(shared bool) string {
	if u.IsTeacher() && shared && u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,max=64"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,registerable"`
	DisplayName     string `json:"display_name" validate:"max=64"`
}

func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username)
	nu.DisplayName = core.CleanString(nu.DisplayName)
	if role, ok := ParseRole(string(nu.Role)); ok {
		nu.Role = role
	}
	if nu.Role != RoleTeacher {
		nu.DisplayName = ""
	}
}

func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Clean()
	return v.Struct(nu)
}

// Credentials are submitted on login; AdminCode is only checked for RoleAdmin.
type Credentials struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      Role   `json:"role" validate:"required"`
	AdminCode string `json:"admin_code"`
}

func (c *Credentials) Validate(v *core.Validator) error {
	c.Username = core.CleanString(c.Username)
	if role, ok := ParseRole(string(c.Role)); ok {
		c.Role = role
	}
	return v.Struct(c)
}
