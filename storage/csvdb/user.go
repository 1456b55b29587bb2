package csvdb

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ratiba/core/user"
)

type userRepository struct {
	db *table
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.users}
}

func userFromRow(r row) user.User {
	role, ok := user.ParseRole(r["role"])
	if !ok {
		role = user.Role(strings.TrimSpace(r["role"]))
	}
	return user.User{
		Username:     r["username"],
		PasswordHash: []byte(r["password"]),
		Role:         role,
		DisplayName:  r["teacher_name"],
	}
}

func userToRow(usr user.User) row {
	return row{
		"username":     usr.Username,
		"password":     string(usr.PasswordHash),
		"role":         usr.Role.String(),
		"teacher_name": usr.DisplayName,
	}
}

func (repo *userRepository) query() ([]user.User, error) {
	rows, err := repo.db.read()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users, nil
}

func (repo *userRepository) save(users []user.User) error {
	rows := make([]row, 0, len(users))
	for _, usr := range users {
		rows = append(rows, userToRow(usr))
	}
	return repo.db.write(rows)
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, err := repo.query()
	if err != nil {
		return user.User{}, err
	}
	for _, u := range users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	if err = repo.save(append(users, usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users, err := repo.query()
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query()
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, err := repo.query()
	if err != nil {
		return user.User{}, err
	}
	for i := range users {
		if users[i].Username == usr.Username {
			users[i] = usr
			if err = repo.save(users); err != nil {
				return user.User{}, err
			}
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// hashLegacyPasswords replaces clear-text passwords left by older versions of the app with bcrypt hashes.
func (db *DB) hashLegacyPasswords() error {
	db.users.Lock()
	defer db.users.Unlock()

	rows, err := db.users.read()
	if err != nil {
		return err
	}
	var upgraded bool
	for _, r := range rows {
		pwd := r["password"]
		if pwd == "" || isBcryptHash(pwd) {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		r["password"] = string(hash)
		upgraded = true
	}
	if !upgraded {
		return nil
	}
	for _, r := range rows {
		if usr := userFromRow(r); usr.Role != "" {
			r["role"] = usr.Role.String()
		}
	}
	return db.users.write(rows)
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
