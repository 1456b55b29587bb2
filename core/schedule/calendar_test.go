package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

func TestProjectMonth_grid(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		month      time.Month
		wantWeeks  int
		wantOffset int
		wantPrev   YearMonth
		wantNext   YearMonth
	}{
		{name: "february 2025", year: 2025, month: time.February, wantWeeks: 5, wantOffset: 6,
			wantPrev: YearMonth{2025, time.January}, wantNext: YearMonth{2025, time.March}},
		{name: "february 2026 fits 4 weeks", year: 2026, month: time.February, wantWeeks: 4, wantOffset: 0,
			wantPrev: YearMonth{2026, time.January}, wantNext: YearMonth{2026, time.March}},
		{name: "august 2026 spans 6 weeks", year: 2026, month: time.August, wantWeeks: 6, wantOffset: 6,
			wantPrev: YearMonth{2026, time.July}, wantNext: YearMonth{2026, time.September}},
		{name: "december rolls the year", year: 2024, month: time.December, wantWeeks: 5, wantOffset: 0,
			wantPrev: YearMonth{2024, time.November}, wantNext: YearMonth{2025, time.January}},
		{name: "january rolls back", year: 2025, month: time.January, wantWeeks: 5, wantOffset: 3,
			wantPrev: YearMonth{2024, time.December}, wantNext: YearMonth{2025, time.February}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ProjectMonth(nil, tt.year, tt.month)
			require.Len(t, m.Weeks, tt.wantWeeks)
			assert.Equal(t, tt.wantPrev, m.Prev)
			assert.Equal(t, tt.wantNext, m.Next)

			for i := 0; i < tt.wantOffset; i++ {
				assert.False(t, m.Weeks[0][i].InMonth, "cell %d should be blank", i)
				assert.Zero(t, m.Weeks[0][i].Day)
			}
			for _, week := range m.Weeks {
				for _, d := range week {
					assert.NotNil(t, d.Entries)
				}
			}
			data, err := json.Marshal(m)
			require.NoError(t, err)
			assert.NotContains(t, string(data), `"entries":null`)
			assert.Equal(t, 1, m.Weeks[0][tt.wantOffset].Day)

			daysIn := time.Date(tt.year, tt.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			var seen int
			for _, week := range m.Weeks {
				for _, d := range week {
					if d.InMonth {
						seen++
						assert.Equal(t, seen, d.Day)
						assert.NotNil(t, d.Entries)
					}
				}
			}
			assert.Equal(t, daysIn, seen)
		})
	}
}

func TestProjectMonth_entries(t *testing.T) {
	checked := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)
	events := []Schedule{
		{ID: 1, Title: "Personal errand", Date: core.NewDate(2025, time.February, 3)},
		{ID: 2, Title: "School-wide assembly", Date: core.NewDate(2025, time.February, 3), Shared: true},
		{ID: 3, Title: "Checked", Date: core.NewDate(2025, time.February, 28), Shared: true, CheckedAt: &checked},
		{ID: 4, Title: "Done", Date: core.NewDate(2025, time.February, 1), Done: true},
		{ID: 5, Title: "Next month", Date: core.NewDate(2025, time.March, 1)},
		{ID: 6, Title: "Last year", Date: core.NewDate(2024, time.February, 3)},
	}
	m := ProjectMonth(events, 2025, time.February)

	// Feb 1st 2025 is a Saturday
	sat := m.Weeks[0][6]
	require.Len(t, sat.Entries, 1)
	assert.Equal(t, StyleCompleted, sat.Entries[0].Style)

	// Feb 3rd is the following Monday
	mon := m.Weeks[1][1]
	assert.Equal(t, 3, mon.Day)
	require.Len(t, mon.Entries, 2)
	assert.Equal(t, 1, mon.Entries[0].ID)
	assert.Equal(t, StylePersonal, mon.Entries[0].Style)
	assert.Equal(t, StyleShared, mon.Entries[1].Style)
	assert.Equal(t, "School-wide ass...", mon.Entries[1].ShortTitle)

	fri := m.Weeks[4][5]
	assert.Equal(t, 28, fri.Day)
	require.Len(t, fri.Entries, 1)
	assert.Equal(t, StyleCompleted, fri.Entries[0].Style)

	var total int
	for _, week := range m.Weeks {
		for _, d := range week {
			total += len(d.Entries)
		}
	}
	assert.Equal(t, 4, total)

	date, ok := m.DateOf(mon)
	assert.True(t, ok)
	assert.Equal(t, "2025-02-03", date.String())
	_, ok = m.DateOf(m.Weeks[0][0])
	assert.False(t, ok)
}

func TestVisibilityPolicy(t *testing.T) {
	events := []Schedule{
		{ID: 1, Owner: "kim", OwnerRole: user.RoleStudent},
		{ID: 2, Owner: "lee", OwnerRole: user.RoleTeacher, Shared: true},
		{ID: 3, Owner: "lee", OwnerRole: user.RoleTeacher},
		{ID: 4, Owner: "park", OwnerRole: user.RoleStudent},
		{ID: 5, Owner: "admin", OwnerRole: user.RoleAdmin},
	}
	ids := func(ss []Schedule) []int {
		out := make([]int, 0, len(ss))
		for _, s := range ss {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		policy   VisibilityPolicy
		username string
		role     user.Role
		want     []int
	}{
		{name: "student", policy: DefaultVisibility(), username: "kim", role: user.RoleStudent, want: []int{1, 2}},
		{name: "teacher", policy: DefaultVisibility(), username: "lee", role: user.RoleTeacher, want: []int{2, 3}},
		{name: "admin sees all", policy: VisibilityFor(true), username: "admin", role: user.RoleAdmin, want: []int{1, 2, 3, 4, 5}},
		{name: "restricted admin", policy: VisibilityFor(false), username: "admin", role: user.RoleAdmin, want: []int{2, 5}},
		{name: "unknown role", policy: DefaultVisibility(), username: "x", role: "guest", want: []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.policy.VisibleTo(events, tt.username, tt.role)))
		})
	}

	assert.Equal(t, []int{1, 2}, ids(VisibleTo(events, "kim", user.RoleStudent)))
}

func TestSortForDisplay(t *testing.T) {
	t0 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	events := []Schedule{
		{ID: 1, Date: core.NewDate(2025, time.March, 2), CreatedAt: t0},
		{ID: 2, Date: core.NewDate(2025, time.March, 1), CreatedAt: t0.Add(time.Hour)},
		{ID: 3, Date: core.NewDate(2025, time.March, 1), CreatedAt: t0},
	}
	SortForDisplay(events)
	assert.Equal(t, 3, events[0].ID)
	assert.Equal(t, 2, events[1].ID)
	assert.Equal(t, 1, events[2].ID)
}

func TestApplyAutoCompletion(t *testing.T) {
	now := time.Date(2025, time.February, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	tests := []struct {
		name     string
		s        Schedule
		wantDone bool
	}{
		{name: "unchecked", s: Schedule{}},
		{name: "checked 23h ago", s: Schedule{CheckedAt: at(23 * time.Hour)}},
		{name: "checked exactly 24h ago", s: Schedule{CheckedAt: at(24 * time.Hour)}, wantDone: true},
		{name: "checked 25h ago", s: Schedule{CheckedAt: at(25 * time.Hour)}, wantDone: true},
		{name: "already done", s: Schedule{Done: true}, wantDone: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []Schedule{tt.s}
			out := ApplyAutoCompletion(in, now)
			assert.Equal(t, tt.wantDone, out[0].Done)
			assert.Equal(t, tt.s.CheckedAt, out[0].CheckedAt)
			assert.Equal(t, tt.s, in[0], "input must not be modified")
		})
	}
}
