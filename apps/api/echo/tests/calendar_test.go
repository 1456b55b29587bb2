package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/tests"
)

func Test_calendarApi_month(t *testing.T) {
	app := setup(t)
	kim := testutil.CreateUser(t, app.stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)
	ana := testutil.CreateUser(t, app.stores.Users, "ana", "Pa$$w0rd!", user.RoleStudent)
	lee := testutil.CreateUser(t, app.stores.Users, "lee", "Pa$$w0rd!", user.RoleTeacher, "Mr. Lee")

	feb := func(day int) core.Date { return core.NewDate(2025, time.February, day) }
	testutil.CreateSchedule(t, app.stores.Schedules, 1, kim, "Quiz", feb(3), false)
	testutil.CreateSchedule(t, app.stores.Schedules, 2, lee, "School-wide assembly", feb(3), true)
	testutil.CreateSchedule(t, app.stores.Schedules, 3, ana, "Ana's", feb(3), false)
	testutil.CreateSchedule(t, app.stores.Schedules, 4, kim, "March", core.NewDate(2025, time.March, 1), false)

	kimToken := getToken(t, app.conf, kim)

	tests := []httpTest{
		{name: "no token", path: "/api/calendar?year=2025&month=2", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "bad month", path: "/api/calendar?year=2025&month=13", token: kimToken, wantCode: http.StatusBadRequest},
		{name: "bad year", path: "/api/calendar?year=abc&month=2", token: kimToken, wantCode: http.StatusBadRequest},
		{name: "current month", path: "/api/calendar", token: kimToken, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("february 2025", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodGet, path: "/api/calendar?year=2025&month=2", token: kimToken})
		require.Equal(t, http.StatusOK, rec.Code)

		var m schedule.Month
		unmarshal(t, rec, &m)
		assert.Equal(t, 2025, m.Year)
		assert.Equal(t, time.February, m.Month)
		assert.Equal(t, schedule.YearMonth{Year: 2025, Month: time.January}, m.Prev)
		assert.Equal(t, schedule.YearMonth{Year: 2025, Month: time.March}, m.Next)
		require.Len(t, m.Weeks, 5)

		// Feb 1st 2025 is a Saturday
		assert.False(t, m.Weeks[0][0].InMonth)
		assert.Equal(t, []schedule.Entry{}, m.Weeks[0][0].Entries)
		assert.NotContains(t, rec.Body.String(), `"entries":null`)
		assert.Equal(t, 1, m.Weeks[0][6].Day)

		// Monday, Feb 3rd
		day := m.Weeks[1][1]
		assert.Equal(t, 3, day.Day)
		assert.Equal(t, []schedule.Entry{
			{ID: 1, Title: "Quiz", ShortTitle: "Quiz", Style: schedule.StylePersonal},
			{ID: 2, Title: "School-wide assembly", ShortTitle: "School-wide ass...", Style: schedule.StyleShared},
		}, day.Entries)
	})
}
