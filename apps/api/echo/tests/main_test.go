package tests

import (
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	sessionsvc "github.com/trezcool/ratiba/services/session"
	"github.com/trezcool/ratiba/storage"
	"github.com/trezcool/ratiba/tests"
)

const adminPasscode = "0000"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testApp is a server backed by temp CSV tables & a settable clock.
type testApp struct {
	*Server
	conf   *core.Config
	stores *storage.Stores
	clock  *testutil.Clock
}

func setup(t *testing.T, adminViewAll ...bool) *testApp {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		AppName:   "Ratiba",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			AllowedOrigins:            []string{"*"},
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Admin: core.AdminConfig{Passcode: adminPasscode, ViewAll: true},
	}
	if len(adminViewAll) > 0 {
		conf.Admin.ViewAll = adminViewAll[0]
	}

	// set up stores
	stores := testutil.PrepareStores(t)
	clock := testutil.NewClock(time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC))

	// set up services
	validator := core.NewValidator()
	usrSvc := user.NewService(stores.Users, validator, conf.Admin.Passcode)
	schedSvc := schedule.NewService(
		stores.Schedules,
		stores.Checks,
		validator,
		schedule.WithClock(clock.Now),
		schedule.WithVisibility(schedule.VisibilityFor(conf.Admin.ViewAll)),
	)

	// set up server
	srv := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      testutil.NopLogger{},
		UserSvc:     usrSvc,
		ScheduleSvc: schedSvc,
		Sessions:    sessionsvc.NewMemoryStore(),
	})
	return &testApp{Server: srv, conf: conf, stores: stores, clock: clock}
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}
