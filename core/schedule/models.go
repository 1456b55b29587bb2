package schedule

import (
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

const shortTitleLen = 15

type Schedule struct {
	ID             int        `json:"id"`
	Owner          string     `json:"owner"`
	OwnerRole      user.Role  `json:"owner_role"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Date           core.Date  `json:"date"`
	Shared         bool       `json:"shared"`
	CreatorDisplay string     `json:"creator_display"`
	CheckedAt      *time.Time `json:"checked_at"` // UTC
	Done           bool       `json:"done"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
}

// EditableBy reports whether `usr` may update, complete or delete the schedule.
func (s Schedule) EditableBy(usr user.User) bool {
	return usr.IsAdmin() || s.Owner == usr.Username
}

func (s Schedule) ShortTitle() string {
	return core.Ellipsis(s.Title, shortTitleLen)
}

// dedupKey identifies a schedule for the uniqueness invariant.
func dedupKey(title string, date core.Date, creatorDisplay string) string {
	return core.FoldString(title) + "\x00" + date.String() + "\x00" + creatorDisplay
}

func (s Schedule) dedupKey() string {
	return dedupKey(s.Title, s.Date, s.CreatorDisplay)
}

// CheckStatus is a user's personal check mark on a schedule.
type CheckStatus struct {
	Username   string     `json:"username"`
	ScheduleID int        `json:"schedule_id"`
	CheckedAt  *time.Time `json:"checked_at"` // UTC
	Done       bool       `json:"done"`       // legacy, unused
}

func (cs CheckStatus) IsChecked() bool {
	return cs.CheckedAt != nil && !cs.CheckedAt.IsZero()
}

// NewSchedule contains information needed to create a new Schedule.
type NewSchedule struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Date        *core.Date `json:"date" validate:"required"`
	Shared      bool       `json:"shared"`
}

func (ns *NewSchedule) Validate(v *core.Validator) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	return v.Struct(ns)
}

// UpdateSchedule defines what information may be provided to modify an existing Schedule.
type UpdateSchedule struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Date        *core.Date `json:"date" validate:"required"`
	Shared      bool       `json:"shared"`
}

func (us *UpdateSchedule) Validate(v *core.Validator) error {
	us.Title = core.CleanString(us.Title)
	us.Description = core.CleanString(us.Description)
	return v.Struct(us)
}

// SetChecked is the body of the check & complete toggles.
type SetChecked struct {
	Checked bool `json:"checked"`
}
