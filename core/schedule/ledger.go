package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var ErrCheckStatusNotFound = core.NewNotFoundError("check status not found")

type CheckRepository interface {
	// GetCheckStatus fails with ErrCheckStatusNotFound if the user never checked the schedule.
	GetCheckStatus(ctx context.Context, username string, scheduleID int) (CheckStatus, error)
	QueryCheckStatuses(ctx context.Context, username string) ([]CheckStatus, error)
	// SaveCheckStatus inserts or replaces the record of (Username, ScheduleID).
	SaveCheckStatus(ctx context.Context, cs CheckStatus) error
	// ClearCheckStatuses unchecks every record, keeping the records.
	ClearCheckStatuses(ctx context.Context) error
}

// Ledger tracks each user's personal check marks, independently of Schedule.CheckedAt.
type Ledger struct {
	repo CheckRepository
	now  func() time.Time
}

func NewLedger(repo CheckRepository, now func() time.Time) *Ledger {
	if now == nil {
		now = core.NowUTC
	}
	return &Ledger{repo: repo, now: now}
}

func (l *Ledger) MarkChecked(ctx context.Context, username string, scheduleID int) error {
	cs, err := l.get(ctx, username, scheduleID)
	if err != nil {
		return err
	}
	now := l.now().UTC()
	cs.CheckedAt = &now
	return errors.Wrap(l.repo.SaveCheckStatus(ctx, cs), "saving check status")
}

// MarkUnchecked clears an existing mark; the record itself is kept.
func (l *Ledger) MarkUnchecked(ctx context.Context, username string, scheduleID int) error {
	cs, err := l.repo.GetCheckStatus(ctx, username, scheduleID)
	if err != nil {
		if errors.Cause(err) == ErrCheckStatusNotFound {
			return nil
		}
		return errors.Wrap(err, "getting check status")
	}
	cs.CheckedAt = nil
	cs.Done = false
	return errors.Wrap(l.repo.SaveCheckStatus(ctx, cs), "saving check status")
}

func (l *Ledger) IsChecked(ctx context.Context, username string, scheduleID int) (bool, error) {
	cs, err := l.repo.GetCheckStatus(ctx, username, scheduleID)
	if err != nil {
		if errors.Cause(err) == ErrCheckStatusNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting check status")
	}
	return cs.IsChecked(), nil
}

// Checked returns the ids of the schedules `username` has currently checked.
func (l *Ledger) Checked(ctx context.Context, username string) (map[int]bool, error) {
	statuses, err := l.repo.QueryCheckStatuses(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "querying check statuses")
	}
	checked := make(map[int]bool, len(statuses))
	for _, cs := range statuses {
		if cs.IsChecked() {
			checked[cs.ScheduleID] = true
		}
	}
	return checked, nil
}

func (l *Ledger) Reset(ctx context.Context) error {
	return errors.Wrap(l.repo.ClearCheckStatuses(ctx), "clearing check statuses")
}

func (l *Ledger) get(ctx context.Context, username string, scheduleID int) (CheckStatus, error) {
	cs, err := l.repo.GetCheckStatus(ctx, username, scheduleID)
	if err == nil {
		return cs, nil
	}
	if errors.Cause(err) == ErrCheckStatusNotFound {
		return CheckStatus{Username: username, ScheduleID: scheduleID}, nil
	}
	return CheckStatus{}, errors.Wrap(err, "getting check status")
}
