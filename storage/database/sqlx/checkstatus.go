package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

type checkStatusRow struct {
	Username   string    `db:"username"`
	ScheduleID int       `db:"schedule_id"`
	CheckedAt  null.Time `db:"checked_at"`
	Done       bool      `db:"done"`
}

type checkRepository struct {
	db core.DB
}

var _ schedule.CheckRepository = (*checkRepository)(nil) // interface compliance check

func NewCheckRepository(db core.DB) schedule.CheckRepository {
	return &checkRepository{db: db}
}

func (repo checkRepository) toRow(cs schedule.CheckStatus) checkStatusRow {
	r := checkStatusRow{Username: cs.Username, ScheduleID: cs.ScheduleID, Done: cs.Done}
	if cs.CheckedAt != nil {
		r.CheckedAt = null.TimeFrom(cs.CheckedAt.UTC())
	}
	return r
}

func (repo checkRepository) fromRow(r checkStatusRow) schedule.CheckStatus {
	cs := schedule.CheckStatus{Username: r.Username, ScheduleID: r.ScheduleID, Done: r.Done}
	if r.CheckedAt.Valid {
		t := r.CheckedAt.Time.UTC()
		cs.CheckedAt = &t
	}
	return cs
}

func (repo checkRepository) GetCheckStatus(ctx context.Context, username string, scheduleID int) (schedule.CheckStatus, error) {
	var r checkStatusRow
	q := repo.db.Rebind(`
		SELECT username, schedule_id, checked_at, done FROM user_schedule_status
		WHERE username = ? AND schedule_id = ?`)
	if err := repo.db.GetContext(ctx, &r, q, username, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.CheckStatus{}, schedule.ErrCheckStatusNotFound
		}
		return schedule.CheckStatus{}, errors.Wrap(err, "getting check status")
	}
	return repo.fromRow(r), nil
}

func (repo checkRepository) QueryCheckStatuses(ctx context.Context, username string) ([]schedule.CheckStatus, error) {
	rows := make([]checkStatusRow, 0)
	q := repo.db.Rebind(`
		SELECT username, schedule_id, checked_at, done FROM user_schedule_status
		WHERE username = ? ORDER BY schedule_id`)
	if err := repo.db.SelectContext(ctx, &rows, q, username); err != nil {
		return nil, errors.Wrap(err, "querying check statuses")
	}
	statuses := make([]schedule.CheckStatus, 0, len(rows))
	for _, r := range rows {
		statuses = append(statuses, repo.fromRow(r))
	}
	return statuses, nil
}

func (repo checkRepository) SaveCheckStatus(ctx context.Context, cs schedule.CheckStatus) error {
	_, err := sqlx.NamedExecContext(ctx, repo.db, `
		INSERT INTO user_schedule_status (username, schedule_id, checked_at, done)
		VALUES (:username, :schedule_id, :checked_at, :done)
		ON CONFLICT (username, schedule_id) DO UPDATE SET checked_at = excluded.checked_at, done = excluded.done`,
		repo.toRow(cs))
	return errors.Wrap(err, "saving check status")
}

func (repo checkRepository) ClearCheckStatuses(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE user_schedule_status SET checked_at = NULL, done = FALSE`)
	return errors.Wrap(err, "clearing check statuses")
}
