package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

const scheduleColumns = `id, username, role, title, description, date, shared, creator_display, checked_at, done, created_at`

type scheduleRow struct {
	ID             int       `db:"id"`
	Username       string    `db:"username"`
	Role           string    `db:"role"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Date           core.Date `db:"date"`
	Shared         bool      `db:"shared"`
	CreatorDisplay string    `db:"creator_display"`
	CheckedAt      null.Time `db:"checked_at"`
	Done           bool      `db:"done"`
	CreatedAt      null.Time `db:"created_at"`
}

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) toRow(s schedule.Schedule) scheduleRow {
	r := scheduleRow{
		ID:             s.ID,
		Username:       s.Owner,
		Role:           s.OwnerRole.String(),
		Title:          s.Title,
		Description:    s.Description,
		Date:           s.Date,
		Shared:         s.Shared,
		CreatorDisplay: s.CreatorDisplay,
		Done:           s.Done,
		CreatedAt:      null.NewTime(s.CreatedAt.UTC(), !s.CreatedAt.IsZero()),
	}
	if s.CheckedAt != nil {
		r.CheckedAt = null.TimeFrom(s.CheckedAt.UTC())
	}
	return r
}

func (repo scheduleRepository) fromRow(r scheduleRow) schedule.Schedule {
	role, ok := user.ParseRole(r.Role)
	if !ok {
		role = user.Role(r.Role)
	}
	s := schedule.Schedule{
		ID:             r.ID,
		Owner:          r.Username,
		OwnerRole:      role,
		Title:          r.Title,
		Description:    r.Description,
		Date:           r.Date,
		Shared:         r.Shared,
		CreatorDisplay: r.CreatorDisplay,
		Done:           r.Done,
	}
	if r.CheckedAt.Valid {
		t := r.CheckedAt.Time.UTC()
		s.CheckedAt = &t
	}
	if r.CreatedAt.Valid {
		s.CreatedAt = r.CreatedAt.Time.UTC()
	}
	return s
}

func (repo scheduleRepository) QuerySchedules(ctx context.Context) ([]schedule.Schedule, error) {
	rows := make([]scheduleRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+scheduleColumns+` FROM schedules ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	events := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		events = append(events, repo.fromRow(r))
	}
	return events, nil
}

func (repo scheduleRepository) GetSchedule(ctx context.Context, id int) (schedule.Schedule, error) {
	var r scheduleRow
	q := repo.db.Rebind(`SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.Schedule{}, schedule.ErrNotFound
		}
		return schedule.Schedule{}, errors.Wrap(err, "getting schedule")
	}
	return repo.fromRow(r), nil
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	_, err := sqlx.NamedExecContext(ctx, repo.db, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (:id, :username, :role, :title, :description, :date, :shared, :creator_display, :checked_at, :done, :created_at)`,
		repo.toRow(s))
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (repo scheduleRepository) update(ctx context.Context, exec core.DBExecutor, s schedule.Schedule) error {
	res, err := sqlx.NamedExecContext(ctx, exec, `
		UPDATE schedules SET
			username = :username, role = :role, title = :title, description = :description, date = :date,
			shared = :shared, creator_display = :creator_display, checked_at = :checked_at, done = :done,
			created_at = :created_at
		WHERE id = :id`, repo.toRow(s))
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	if err := repo.update(ctx, repo.db, s); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (repo scheduleRepository) UpdateSchedules(ctx context.Context, ss []schedule.Schedule) error {
	return core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		for _, s := range ss {
			if err := repo.update(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo scheduleRepository) DeleteSchedule(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM schedules WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) DeleteAllSchedules(ctx context.Context) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schedules`)
	if err != nil {
		return 0, errors.Wrap(err, "deleting schedules")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted schedules")
}
