package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("schedule not found")
	ErrDuplicate = core.NewDuplicateError("a schedule with the same title, date and creator already exists")
)

type (
	Repository interface {
		// QuerySchedules returns every stored schedule, as stored.
		QuerySchedules(ctx context.Context) ([]Schedule, error)
		GetSchedule(ctx context.Context, id int) (Schedule, error)
		// CreateSchedule stores `s` under its preassigned ID.
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		// UpdateSchedules replaces several schedules at once, atomically.
		UpdateSchedules(ctx context.Context, ss []Schedule) error
		DeleteSchedule(ctx context.Context, id int) error
		DeleteAllSchedules(ctx context.Context) (int, error)
	}

	// Service holds the schedule lifecycle rules.
	// Every read-modify-write sequence runs under mu.
	Service struct {
		mu         sync.Mutex
		repo       Repository
		ledger     *Ledger
		validator  *core.Validator
		visibility VisibilityPolicy
		now        func() time.Time
	}

	Option func(*Service)

	// ListItem is a schedule as shown to a viewer in the list view.
	ListItem struct {
		Schedule
		ShortTitle string `json:"short_title"`
		Checked    bool   `json:"checked"` // viewer's own mark
	}

	ListView struct {
		InProgress []ListItem `json:"in_progress"`
		Completed  []ListItem `json:"completed"`
	}
)

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func WithVisibility(policy VisibilityPolicy) Option {
	return func(svc *Service) { svc.visibility = policy }
}

func NewService(repo Repository, checks CheckRepository, validator *core.Validator, opts ...Option) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(checks, "checks"),
		vala.IsNotNil(validator, "validator"),
	).CheckAndPanic()

	svc := &Service{
		repo:       repo,
		validator:  validator,
		visibility: DefaultVisibility(),
		now:        core.NowUTC,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.ledger = NewLedger(checks, svc.now)
	return svc
}

func (svc *Service) Ledger() *Ledger { return svc.ledger }

func (svc *Service) Visibility() VisibilityPolicy { return svc.visibility }

// load returns every schedule with auto-completion applied.
func (svc *Service) load(ctx context.Context) ([]Schedule, error) {
	events, err := svc.repo.QuerySchedules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	return ApplyAutoCompletion(events, svc.now()), nil
}

func findDuplicate(events []Schedule, key string, excludedID int) bool {
	for _, s := range events {
		if s.ID != excludedID && s.dedupKey() == key {
			return true
		}
	}
	return false
}

func nextID(events []Schedule) int {
	var max int
	for _, s := range events {
		if s.ID > max {
			max = s.ID
		}
	}
	return max + 1
}

// Create adds a schedule owned by `owner`. Only teachers may share schedules.
func (svc *Service) Create(ctx context.Context, owner user.User, ns NewSchedule) (Schedule, error) {
	if err := ns.Validate(svc.validator); err != nil {
		return Schedule{}, err
	}
	shared := ns.Shared && owner.IsTeacher()
	s := Schedule{
		Owner:          owner.Username,
		OwnerRole:      owner.Role,
		Title:          ns.Title,
		Description:    ns.Description,
		Date:           *ns.Date,
		Shared:         shared,
		CreatorDisplay: owner.Attribution(shared),
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	events, err := svc.load(ctx)
	if err != nil {
		return Schedule{}, err
	}
	if findDuplicate(events, s.dedupKey(), 0) {
		return Schedule{}, ErrDuplicate
	}
	s.ID = nextID(events)
	s.CreatedAt = svc.now().UTC()

	s, err = svc.repo.CreateSchedule(ctx, s)
	return s, errors.Wrap(err, "creating schedule")
}

// Get returns the schedule with auto-completion applied.
func (svc *Service) Get(ctx context.Context, id int) (Schedule, error) {
	s, err := svc.repo.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	return ApplyAutoCompletion([]Schedule{s}, svc.now())[0], nil
}

// QueryAll returns every schedule, sorted for display.
func (svc *Service) QueryAll(ctx context.Context) ([]Schedule, error) {
	events, err := svc.load(ctx)
	if err != nil {
		return nil, err
	}
	SortForDisplay(events)
	return events, nil
}

// Visible returns the schedules `viewer` may see, sorted for display.
func (svc *Service) Visible(ctx context.Context, viewer user.User) ([]Schedule, error) {
	events, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return svc.visibility.VisibleTo(events, viewer.Username, viewer.Role), nil
}

// GetVisible returns the schedule if `viewer` may see it, ErrNotFound otherwise.
func (svc *Service) GetVisible(ctx context.Context, viewer user.User, id int) (Schedule, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if !svc.visibility.CanSee(s, viewer.Username, viewer.Role) {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}

// List splits the schedules visible to `viewer` into in-progress & completed ones,
// flagged with the viewer's own check marks.
func (svc *Service) List(ctx context.Context, viewer user.User) (ListView, error) {
	events, err := svc.Visible(ctx, viewer)
	if err != nil {
		return ListView{}, err
	}
	checked, err := svc.ledger.Checked(ctx, viewer.Username)
	if err != nil {
		return ListView{}, err
	}

	view := ListView{InProgress: []ListItem{}, Completed: []ListItem{}}
	for _, s := range events {
		item := ListItem{Schedule: s, ShortTitle: s.ShortTitle(), Checked: checked[s.ID]}
		if s.Done {
			view.Completed = append(view.Completed, item)
		} else {
			view.InProgress = append(view.InProgress, item)
		}
	}
	return view, nil
}

// Calendar projects the schedules visible to `viewer` on a month grid.
func (svc *Service) Calendar(ctx context.Context, viewer user.User, year int, month time.Month) (Month, error) {
	events, err := svc.Visible(ctx, viewer)
	if err != nil {
		return Month{}, err
	}
	return ProjectMonth(events, year, month), nil
}

// Update overwrites the title, description, date & sharing of a schedule.
// The uniqueness check uses the schedule's existing creator display.
func (svc *Service) Update(ctx context.Context, id int, us UpdateSchedule) (Schedule, error) {
	if err := us.Validate(svc.validator); err != nil {
		return Schedule{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	events, err := svc.load(ctx)
	if err != nil {
		return Schedule{}, err
	}
	var (
		s     Schedule
		found bool
	)
	for _, e := range events {
		if e.ID == id {
			s, found = e, true
			break
		}
	}
	if !found {
		return Schedule{}, ErrNotFound
	}

	s.Title = us.Title
	s.Description = us.Description
	s.Date = *us.Date
	s.Shared = us.Shared && s.OwnerRole == user.RoleTeacher
	if findDuplicate(events, s.dedupKey(), s.ID) {
		return Schedule{}, ErrDuplicate
	}

	s, err = svc.repo.UpdateSchedule(ctx, s)
	return s, errors.Wrap(err, "updating schedule")
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.repo.DeleteSchedule(ctx, id)
}

// SetChecked checks a schedule, or unchecks it and reopens it whatever the elapsed time.
func (svc *Service) SetChecked(ctx context.Context, id int, checked bool) (Schedule, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	s, err := svc.repo.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if checked {
		now := svc.now().UTC()
		s.CheckedAt = &now
	} else {
		s.CheckedAt = nil
		s.Done = false
	}

	if s, err = svc.repo.UpdateSchedule(ctx, s); err != nil {
		return Schedule{}, errors.Wrap(err, "updating schedule")
	}
	return ApplyAutoCompletion([]Schedule{s}, svc.now())[0], nil
}

// SetViewerChecked sets `viewer`'s own check mark on a schedule they can see.
func (svc *Service) SetViewerChecked(ctx context.Context, viewer user.User, id int, checked bool) error {
	if _, err := svc.GetVisible(ctx, viewer, id); err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if checked {
		return svc.ledger.MarkChecked(ctx, viewer.Username, id)
	}
	return svc.ledger.MarkUnchecked(ctx, viewer.Username, id)
}

// ResetAll deletes every schedule and returns how many were removed.
func (svc *Service) ResetAll(ctx context.Context) (int, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	n, err := svc.repo.DeleteAllSchedules(ctx)
	return n, errors.Wrap(err, "deleting schedules")
}

// ResetChecks unchecks & reopens every schedule and clears every user's check marks.
func (svc *Service) ResetChecks(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	events, err := svc.repo.QuerySchedules(ctx)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	original := make([]Schedule, len(events))
	copy(original, events)

	for i := range events {
		events[i].CheckedAt = nil
		events[i].Done = false
	}
	if err = svc.repo.UpdateSchedules(ctx, events); err != nil {
		return errors.Wrap(err, "updating schedules")
	}
	if err = svc.ledger.Reset(ctx); err != nil {
		// put the event marks back so both stores stay as they were
		if rbErr := svc.repo.UpdateSchedules(ctx, original); rbErr != nil {
			return errors.Wrapf(err, "restoring schedules: %v", rbErr)
		}
		return err
	}
	return nil
}

// PersistCompletions stores the derived done flag of schedules whose completion window
// has elapsed, and returns how many were updated.
func (svc *Service) PersistCompletions(ctx context.Context) (int, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stored, err := svc.repo.QuerySchedules(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying schedules")
	}
	completed := ApplyAutoCompletion(stored, svc.now())

	changed := make([]Schedule, 0)
	for i := range stored {
		if completed[i].Done != stored[i].Done {
			changed = append(changed, completed[i])
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err = svc.repo.UpdateSchedules(ctx, changed); err != nil {
		return 0, errors.Wrap(err, "updating schedules")
	}
	return len(changed), nil
}
