package schedule

import (
	"sort"

	"github.com/trezcool/ratiba/core/user"
)

type Scope int

const (
	ScopeOwnAndShared Scope = iota // own schedules + shared ones
	ScopeAll
)

// VisibilityPolicy maps each role to the schedules it sees in list & calendar views.
// Roles missing from the policy get ScopeOwnAndShared.
type VisibilityPolicy map[user.Role]Scope

func DefaultVisibility() VisibilityPolicy {
	return VisibilityPolicy{
		user.RoleStudent: ScopeOwnAndShared,
		user.RoleTeacher: ScopeOwnAndShared,
		user.RoleAdmin:   ScopeAll,
	}
}

// VisibilityFor returns the default policy with the admin scope set by `adminViewAll`.
func VisibilityFor(adminViewAll bool) VisibilityPolicy {
	policy := DefaultVisibility()
	if !adminViewAll {
		policy[user.RoleAdmin] = ScopeOwnAndShared
	}
	return policy
}

func (p VisibilityPolicy) scope(role user.Role) Scope {
	if scope, ok := p[role]; ok {
		return scope
	}
	return ScopeOwnAndShared
}

// CanSee reports whether `username` with `role` may see `s`.
func (p VisibilityPolicy) CanSee(s Schedule, username string, role user.Role) bool {
	return p.scope(role) == ScopeAll || s.Owner == username || s.Shared
}

// VisibleTo keeps the events `username` with `role` may see, in their original order.
func (p VisibilityPolicy) VisibleTo(events []Schedule, username string, role user.Role) []Schedule {
	visible := make([]Schedule, 0, len(events))
	for _, s := range events {
		if p.CanSee(s, username, role) {
			visible = append(visible, s)
		}
	}
	return visible
}

// VisibleTo filters `events` with the DefaultVisibility policy.
func VisibleTo(events []Schedule, username string, role user.Role) []Schedule {
	return DefaultVisibility().VisibleTo(events, username, role)
}

// SortForDisplay orders schedules by date, then by creation time.
func SortForDisplay(events []Schedule) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}
