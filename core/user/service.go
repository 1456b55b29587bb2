package user

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrUsernameExists     = core.NewDuplicateError("a user with this username already exists")
	ErrInvalidCredentials = core.NewAuthError("invalid username, password or role")
	ErrInvalidAdminCode   = core.NewAuthError("invalid administrator passcode")

	errInvalidPassword = errors.New("invalid password")
)

type (
	Repository interface {
		// CreateUser fails with ErrUsernameExists if the username is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, username string) (User, error)
		QueryUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		mu        sync.Mutex // guards username uniqueness between check & insert
		repo      Repository
		validator *core.Validator
		adminCode []byte
	}
)

// NewService returns the account service. adminCode is the extra passcode required on admin logins.
func NewService(repo Repository, validator *core.Validator, adminCode string) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validator, "validator"),
	).CheckAndPanic()

	InitValidators(validator)
	return &Service{
		repo:      repo,
		validator: validator,
		adminCode: []byte(adminCode),
	}
}

// Register signs up a student or teacher.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validator); err != nil {
		return User{}, err
	}
	usr := User{
		Username:    nu.Username,
		Role:        nu.Role,
		DisplayName: nu.DisplayName,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.repo.GetUser(ctx, usr.Username); err == nil {
		return User{}, ErrUsernameExists
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate checks role-scoped credentials; admins must also provide the admin passcode.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Validate(svc.validator); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUser(ctx, creds.Username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if usr.CheckPassword(creds.Password) != nil || usr.Role != creds.Role {
		return User{}, ErrInvalidCredentials
	}
	if usr.IsAdmin() {
		if len(svc.adminCode) == 0 || subtle.ConstantTimeCompare(svc.adminCode, []byte(creds.AdminCode)) != 1 {
			return User{}, ErrInvalidAdminCode
		}
	}
	return usr, nil
}

func (svc *Service) Get(ctx context.Context, username string) (User, error) {
	return svc.repo.GetUser(ctx, core.CleanString(username))
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx)
}

// ResetPassword sets a new password for `username`, enforcing the password policy.
func (svc *Service) ResetPassword(ctx context.Context, username, pwd string) error {
	usr, err := svc.Get(ctx, username)
	if err != nil {
		return err
	}
	if err = CheckPasswordPolicy(pwd, usr.Username); err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// EnsureAdmin seeds the admin account unless it already exists.
func (svc *Service) EnsureAdmin(ctx context.Context, username, pwd string) (usr User, created bool, err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	username = core.CleanString(username)
	if usr, err = svc.repo.GetUser(ctx, username); err == nil {
		return usr, false, nil
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, false, err
	}

	usr = User{Username: username, Role: RoleAdmin}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, false, err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	return usr, err == nil, err
}
