package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

type userRow struct {
	Username    string `db:"username"`
	Password    string `db:"password"`
	Role        string `db:"role"`
	TeacherName string `db:"teacher_name"`
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		Username:    usr.Username,
		Password:    string(usr.PasswordHash),
		Role:        usr.Role.String(),
		TeacherName: usr.DisplayName,
	}
}

func (repo userRepository) fromRow(r userRow) user.User {
	role, ok := user.ParseRole(r.Role)
	if !ok {
		role = user.Role(r.Role)
	}
	return user.User{
		Username:     r.Username,
		PasswordHash: []byte(r.Password),
		Role:         role,
		DisplayName:  r.TeacherName,
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		var n int
		q := tx.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`)
		if err := tx.GetContext(ctx, &n, q, usr.Username); err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if n > 0 {
			return user.ErrUsernameExists
		}

		_, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO users (username, password, role, teacher_name)
			VALUES (:username, :password, :role, :teacher_name)`, repo.toRow(usr))
		return errors.Wrap(err, "inserting user")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, username string) (user.User, error) {
	var r userRow
	q := repo.db.Rebind(`SELECT username, password, role, teacher_name FROM users WHERE username = ?`)
	if err := repo.db.GetContext(ctx, &r, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return repo.fromRow(r), nil
}

func (repo userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	rows := make([]userRow, 0)
	q := `SELECT username, password, role, teacher_name FROM users ORDER BY username`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.fromRow(r))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE users SET password = :password, role = :role, teacher_name = :teacher_name
		WHERE username = :username`, repo.toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
