package tests

import (
	"context"
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

func Test_adminApi_permissions(t *testing.T) {
	app := setup(t)
	kim := testutil.CreateUser(t, app.stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)
	lee := testutil.CreateUser(t, app.stores.Users, "lee", "Pa$$w0rd!", user.RoleTeacher)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/schedules"},
		{http.MethodDelete, "/api/admin/schedules"},
		{http.MethodDelete, "/api/admin/checks"},
	}
	for _, r := range routes {
		tests := []httpTest{
			{name: r.method + " " + r.path + " no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: r.method + " " + r.path + " student", token: getToken(t, app.conf, kim), wantCode: http.StatusForbidden, wantData: forbidden},
			{name: r.method + " " + r.path + " teacher", token: getToken(t, app.conf, lee), wantCode: http.StatusForbidden, wantData: forbidden},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method, tt.path = r.method, r.path
				rec := app.do(tt)
				checkCodeAndData(t, tt, rec)
			})
		}
	}
}

func Test_adminApi_listUsers(t *testing.T) {
	app := setup(t)
	kim := testutil.CreateUser(t, app.stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)
	lee := testutil.CreateUser(t, app.stores.Users, "lee", "Pa$$w0rd!", user.RoleTeacher, "Mr. Lee")
	admin := testutil.CreateUser(t, app.stores.Users, "boss", "Adm1n-pass", user.RoleAdmin)

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/api/admin/users",
		token:    getToken(t, app.conf, admin),
		wantCode: http.StatusOK,
		wantData: marchallList(t, kim, lee, admin),
	}
	rec := app.do(tt)
	checkCodeAndData(t, tt, rec)
	assert.NotContains(t, rec.Body.String(), "password")
}

func Test_adminApi_schedules(t *testing.T) {
	// admin listing ignores the admin visibility scope
	app := setup(t, false)
	ctx := context.Background()
	kim := testutil.CreateUser(t, app.stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)
	lee := testutil.CreateUser(t, app.stores.Users, "lee", "Pa$$w0rd!", user.RoleTeacher, "Mr. Lee")
	admin := testutil.CreateUser(t, app.stores.Users, "boss", "Adm1n-pass", user.RoleAdmin)
	adminToken := getToken(t, app.conf, admin)

	feb := func(day int) core.Date { return core.NewDate(2025, time.February, day) }
	testutil.CreateSchedule(t, app.stores.Schedules, 1, kim, "Quiz", feb(10), false)
	testutil.CreateSchedule(t, app.stores.Schedules, 2, lee, "Exam", feb(5), true)

	rec := app.do(httpTest{method: http.MethodGet, path: "/api/admin/schedules", token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var events []scheduleResp
	unmarshal(t, rec, &events)
	assert.Equal(t, []int{2, 1}, ids(events))

	// personal & event checks
	kimToken := getToken(t, app.conf, kim)
	leeToken := getToken(t, app.conf, lee)
	rec = app.do(httpTest{method: http.MethodPut, path: "/api/schedules/2/check", body: []byte(`{"checked":true}`), token: kimToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(httpTest{method: http.MethodPut, path: "/api/schedules/2/complete", body: []byte(`{"checked":true}`), token: leeToken})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("reset checks", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodDelete, path: "/api/admin/checks", token: adminToken})
		require.Equal(t, http.StatusNoContent, rec.Code)

		s, err := app.stores.Schedules.GetSchedule(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, s.CheckedAt)
		assert.False(t, s.Done)

		checked, err := app.stores.Checks.QueryCheckStatuses(ctx, "kim")
		require.NoError(t, err)
		for _, cs := range checked {
			assert.False(t, cs.IsChecked())
		}
	})

	t.Run("reset schedules", func(t *testing.T) {
		tt := httpTest{
			method:   http.MethodDelete,
			path:     "/api/admin/schedules",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`{"deleted":2}`),
		}
		rec := app.do(tt)
		checkCodeAndData(t, tt, rec)

		events, err := app.stores.Schedules.QuerySchedules(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)

		// ids restart from 1
		rec = app.do(httpTest{method: http.MethodPost, path: "/api/schedules", body: []byte(`{"title":"Quiz","date":"2025-03-01"}`), token: kimToken})
		require.Equal(t, http.StatusCreated, rec.Code)
		var got scheduleResp
		unmarshal(t, rec, &got)
		assert.Equal(t, 1, got.ID)
	})

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/api/admin/schedules",
		token:    adminToken,
		wantCode: http.StatusOK,
	}
	rec = app.do(tt)
	checkCodeAndData(t, tt, rec)
	var left []schedule.Schedule
	unmarshal(t, rec, &left)
	assert.Len(t, left, 1)
}
