package csvdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

type scheduleRepository struct {
	db     *table
	checks *table
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedules, checks: db.checks}
}

func scheduleFromRow(r row) (schedule.Schedule, error) {
	var (
		s   schedule.Schedule
		err error
	)
	s.Owner = r["username"]
	if role, ok := user.ParseRole(r["role"]); ok {
		s.OwnerRole = role
	} else {
		s.OwnerRole = user.Role(strings.TrimSpace(r["role"]))
	}
	s.Title = r["title"]
	s.Description = r["description"]
	s.CreatorDisplay = r["creator_display"]
	if s.CreatorDisplay == "" {
		s.CreatorDisplay = s.Owner
	}
	if s.Date, err = parseDate(r["date"]); err != nil {
		return s, err
	}
	if s.Shared, err = parseBool(r["shared"]); err != nil {
		return s, err
	}
	if s.CheckedAt, err = parseTimePtr(r["checked_at"]); err != nil {
		return s, err
	}
	if s.Done, err = parseBool(r["done"]); err != nil {
		return s, err
	}
	if s.CreatedAt, err = parseTime(r["created_at"]); err != nil {
		return s, err
	}
	return s, nil
}

func scheduleToRow(s schedule.Schedule) row {
	return row{
		"id":              strconv.Itoa(s.ID),
		"username":        s.Owner,
		"role":            s.OwnerRole.String(),
		"title":           s.Title,
		"description":     s.Description,
		"date":            formatDate(s.Date),
		"shared":          formatBool(s.Shared),
		"creator_display": s.CreatorDisplay,
		"checked_at":      formatTimePtr(s.CheckedAt),
		"done":            formatBool(s.Done),
		"created_at":      formatTime(s.CreatedAt),
	}
}

// read parses the table. broken reports a missing or unreadable id, such rows get ID 0.
func (repo *scheduleRepository) read() (events []schedule.Schedule, broken bool, err error) {
	rows, err := repo.db.read()
	if err != nil {
		return nil, false, err
	}

	events = make([]schedule.Schedule, 0, len(rows))
	for i, r := range rows {
		s, err := scheduleFromRow(r)
		if err != nil {
			return nil, false, errors.Wrapf(err, "schedules row %d", i+1)
		}
		if s.ID, err = parseID(r["id"]); err != nil || s.ID <= 0 {
			s.ID = 0
			broken = true
		}
		events = append(events, s)
	}
	return events, broken, nil
}

// query loads the table, renumbering it first when broken. Callers hold the write lock.
func (repo *scheduleRepository) query() ([]schedule.Schedule, error) {
	events, broken, err := repo.read()
	if err != nil || !broken {
		return events, err
	}
	if err = repo.renumber(events); err != nil {
		return nil, err
	}
	return events, nil
}

// load is query for readers: the write lock is only taken when the table must be renumbered.
func (repo *scheduleRepository) load() ([]schedule.Schedule, error) {
	repo.db.RLock()
	events, broken, err := repo.read()
	repo.db.RUnlock()
	if err != nil || !broken {
		return events, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.query()
}

// renumber gives the schedules the ids 1..n in file order and saves them.
// Check statuses follow their schedule to its new id; those pointing to no schedule are dropped.
func (repo *scheduleRepository) renumber(events []schedule.Schedule) error {
	original, err := repo.db.read()
	if err != nil {
		return err
	}

	newIDs := make(map[int]int, len(events))
	for i := range events {
		if old := events[i].ID; old > 0 {
			if _, seen := newIDs[old]; !seen {
				newIDs[old] = i + 1
			}
		}
		events[i].ID = i + 1
	}

	repo.checks.Lock()
	defer repo.checks.Unlock()

	checks, err := repo.checks.read()
	if err != nil {
		return err
	}
	remapped := make([]row, 0, len(checks))
	for _, r := range checks {
		old, err := parseID(r["schedule_id"])
		if err != nil {
			continue
		}
		if id, ok := newIDs[old]; ok {
			r["schedule_id"] = strconv.Itoa(id)
			remapped = append(remapped, r)
		}
	}

	if err = repo.save(events); err != nil {
		return errors.Wrap(err, "renumbering schedules")
	}
	if err = repo.checks.write(remapped); err != nil {
		if rbErr := repo.db.write(original); rbErr != nil {
			return errors.Wrapf(err, "restoring schedules: %v", rbErr)
		}
		return errors.Wrap(err, "renumbering check statuses")
	}
	return nil
}

func (repo *scheduleRepository) save(events []schedule.Schedule) error {
	rows := make([]row, 0, len(events))
	for _, s := range events {
		rows = append(rows, scheduleToRow(s))
	}
	return repo.db.write(rows)
}

func indexOf(events []schedule.Schedule, id int) int {
	for i, s := range events {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (repo *scheduleRepository) QuerySchedules(_ context.Context) ([]schedule.Schedule, error) {
	return repo.load()
}

func (repo *scheduleRepository) GetSchedule(_ context.Context, id int) (schedule.Schedule, error) {
	events, err := repo.load()
	if err != nil {
		return schedule.Schedule{}, err
	}
	if i := indexOf(events, id); i >= 0 {
		return events[i], nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	events, err := repo.query()
	if err != nil {
		return schedule.Schedule{}, err
	}
	if indexOf(events, s.ID) >= 0 {
		return schedule.Schedule{}, errors.Errorf("schedule %d already exists", s.ID)
	}
	if err = repo.save(append(events, s)); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	if err := repo.UpdateSchedules(ctx, []schedule.Schedule{s}); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (repo *scheduleRepository) UpdateSchedules(_ context.Context, ss []schedule.Schedule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	events, err := repo.query()
	if err != nil {
		return err
	}
	for _, s := range ss {
		i := indexOf(events, s.ID)
		if i < 0 {
			return schedule.ErrNotFound
		}
		events[i] = s
	}
	return repo.save(events)
}

func (repo *scheduleRepository) DeleteSchedule(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	events, err := repo.query()
	if err != nil {
		return err
	}
	i := indexOf(events, id)
	if i < 0 {
		return schedule.ErrNotFound
	}
	return repo.save(append(events[:i], events[i+1:]...))
}

func (repo *scheduleRepository) DeleteAllSchedules(_ context.Context) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	events, err := repo.query()
	if err != nil {
		return 0, err
	}
	if err = repo.save(nil); err != nil {
		return 0, err
	}
	return len(events), nil
}
