package csvdb

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type checkRepository struct {
	db *table
}

var _ schedule.CheckRepository = (*checkRepository)(nil) // interface compliance check

func NewCheckRepository(db *DB) schedule.CheckRepository {
	return &checkRepository{db: db.checks}
}

func checkStatusFromRow(r row) (cs schedule.CheckStatus, err error) {
	cs.Username = r["username"]
	if cs.ScheduleID, err = parseID(r["schedule_id"]); err != nil {
		return cs, err
	}
	if cs.CheckedAt, err = parseTimePtr(r["checked_at"]); err != nil {
		return cs, err
	}
	cs.Done, err = parseBool(r["done"])
	return cs, err
}

func checkStatusToRow(cs schedule.CheckStatus) row {
	return row{
		"username":    cs.Username,
		"schedule_id": strconv.Itoa(cs.ScheduleID),
		"checked_at":  formatTimePtr(cs.CheckedAt),
		"done":        formatLegacyFlag(cs.Done),
	}
}

func (repo *checkRepository) query() ([]schedule.CheckStatus, error) {
	rows, err := repo.db.read()
	if err != nil {
		return nil, err
	}
	statuses := make([]schedule.CheckStatus, 0, len(rows))
	for i, r := range rows {
		cs, err := checkStatusFromRow(r)
		if err != nil {
			return nil, errors.Wrapf(err, "check statuses row %d", i+1)
		}
		statuses = append(statuses, cs)
	}
	return statuses, nil
}

func (repo *checkRepository) save(statuses []schedule.CheckStatus) error {
	rows := make([]row, 0, len(statuses))
	for _, cs := range statuses {
		rows = append(rows, checkStatusToRow(cs))
	}
	return repo.db.write(rows)
}

func (repo *checkRepository) GetCheckStatus(_ context.Context, username string, scheduleID int) (schedule.CheckStatus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	statuses, err := repo.query()
	if err != nil {
		return schedule.CheckStatus{}, err
	}
	for _, cs := range statuses {
		if cs.Username == username && cs.ScheduleID == scheduleID {
			return cs, nil
		}
	}
	return schedule.CheckStatus{}, schedule.ErrCheckStatusNotFound
}

func (repo *checkRepository) QueryCheckStatuses(_ context.Context, username string) ([]schedule.CheckStatus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	statuses, err := repo.query()
	if err != nil {
		return nil, err
	}
	own := make([]schedule.CheckStatus, 0)
	for _, cs := range statuses {
		if cs.Username == username {
			own = append(own, cs)
		}
	}
	return own, nil
}

func (repo *checkRepository) SaveCheckStatus(_ context.Context, cs schedule.CheckStatus) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	statuses, err := repo.query()
	if err != nil {
		return err
	}
	for i := range statuses {
		if statuses[i].Username == cs.Username && statuses[i].ScheduleID == cs.ScheduleID {
			statuses[i] = cs
			return repo.save(statuses)
		}
	}
	return repo.save(append(statuses, cs))
}

func (repo *checkRepository) ClearCheckStatuses(_ context.Context) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	statuses, err := repo.query()
	if err != nil {
		return err
	}
	for i := range statuses {
		statuses[i].CheckedAt = nil
		statuses[i].Done = false
	}
	return repo.save(statuses)
}
