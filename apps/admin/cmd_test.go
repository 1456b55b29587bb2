package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage"
	"github.com/trezcool/ratiba/tests"
)

func setup(t *testing.T) *commandLine {
	stores := testutil.PrepareStores(t)
	validator := core.NewValidator()
	return &commandLine{
		conf:     &core.Config{Database: core.DatabaseConfig{Engine: core.EngineCSV}},
		stores:   stores,
		usrSvc:   user.NewService(stores.Users, validator, "0000"),
		schedSvc: schedule.NewService(stores.Schedules, stores.Checks, validator),
	}
}

// execute runs the CLI with `args` (without program name) and returns its output.
func (cli *commandLine) execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand(cli)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.execute() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.execute() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.execute() unexpected error = %v", err)
	}
}

// seed stores the february 2025 fixture used by the listing & calendar tests.
func seed(t *testing.T, stores *storage.Stores) {
	kim := testutil.CreateUser(t, stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)
	ana := testutil.CreateUser(t, stores.Users, "ana", "Pa$$w0rd!", user.RoleStudent)
	lee := testutil.CreateUser(t, stores.Users, "lee", "Pa$$w0rd!", user.RoleTeacher, "Mr. Lee")

	created := time.Date(2025, time.January, 20, 8, 0, 0, 0, time.UTC)
	feb := func(day int) core.Date { return core.NewDate(2025, time.February, day) }
	testutil.CreateSchedule(t, stores.Schedules, 1, kim, "Quiz", feb(3), false, created)
	testutil.CreateSchedule(t, stores.Schedules, 2, lee, "School-wide assembly", feb(3), true, created.Add(time.Minute))
	testutil.CreateSchedule(t, stores.Schedules, 3, ana, "Ana's essay", feb(10), false, created)
	party := testutil.CreateSchedule(t, stores.Schedules, 4, kim, "Valentine's party", feb(14), false, created)

	party.Done = true
	_, err := stores.Schedules.UpdateSchedule(context.Background(), party)
	require.NoError(t, err)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	_, err := cli.execute("migrate", "up")
	assert.Equal(t, errNoSQLEngine, err)

	// any non-nil handle will do, goose is mocked
	cli.stores.SQL = new(sql.DB)
	cli.conf.Database.Engine = core.EngineSQLite

	var gotDialect string
	gooseRunFunc = func(db *sql.DB, dialect, command string, args ...string) error {
		gotDialect = dialect
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cli.execute(tt.args...)
			checkErr(t, tt, err)
		})
	}
	assert.Equal(t, core.EngineSQLite, gotDialect)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.stores.Users, "kim", "Pa$$w0rd!", user.RoleStudent)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no username", args: []string{"resetpassword"}, wantErrStr: `required flag(s) "username" not set`},
		{name: "no password", args: []string{"resetpassword", "-u", "kim"}, wantErr: errEmptyPassword},
		{name: "user not found", args: []string{"resetpassword", "-u", "lol"}, extra: extra{pwd: "N3w-Secret!"}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-u", "kim"}, extra: extra{pwd: "short"}, wantErrStr: "invalid password"},
		{name: "reset", args: []string{"resetpassword", "--username", "kim"}, extra: extra{pwd: "N3w-Secret!"}},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			_, err := cli.execute(tt.args...)
			checkErr(t, tt, err)
			if err != nil {
				return
			}
			refreshedUsr, err := cli.stores.Users.GetUser(context.Background(), usr.Username)
			require.NoError(t, err)
			assert.NoError(t, refreshedUsr.CheckPassword("N3w-Secret!"))
		})
	}
}

func Test_commandLine_resets(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	seed(t, cli.stores)

	_, err := cli.schedSvc.SetChecked(ctx, 1, true)
	require.NoError(t, err)
	kim := user.User{Username: "kim", Role: user.RoleStudent}
	require.NoError(t, cli.schedSvc.SetViewerChecked(ctx, kim, 2, true))

	_, err = cli.execute("reset-checks")
	assert.Equal(t, errNotConfirmed, err)

	out, err := cli.execute("reset-checks", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "checks reset\n", out)

	events, err := cli.stores.Schedules.QuerySchedules(ctx)
	require.NoError(t, err)
	for _, s := range events {
		assert.Nil(t, s.CheckedAt)
		assert.False(t, s.Done)
	}
	checked, err := cli.schedSvc.Ledger().IsChecked(ctx, "kim", 2)
	require.NoError(t, err)
	assert.False(t, checked)

	_, err = cli.execute("reset-schedules")
	assert.Equal(t, errNotConfirmed, err)

	out, err = cli.execute("reset-schedules", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "4 schedule(s) deleted\n", out)

	events, err = cli.stores.Schedules.QuerySchedules(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func Test_commandLine_users(t *testing.T) {
	cli := setup(t)
	seed(t, cli.stores)

	want := []userRow{
		{Username: "kim", Role: "student"},
		{Username: "ana", Role: "student"},
		{Username: "lee", Role: "teacher", DisplayName: "Mr. Lee"},
	}

	t.Run("json", func(t *testing.T) {
		out, err := cli.execute("users", "--format", "json")
		require.NoError(t, err)
		var got []userRow
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.ElementsMatch(t, want, got)
		assert.NotContains(t, out, "password")
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := cli.execute("users", "--format", "yaml")
		require.NoError(t, err)
		var got []userRow
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.ElementsMatch(t, want, got)
		assert.NotContains(t, out, "password")
	})

	t.Run("text", func(t *testing.T) {
		out, err := cli.execute("users")
		require.NoError(t, err)
		assert.Contains(t, out, "USERNAME")
		assert.Regexp(t, `lee\s+teacher\s+Mr\. Lee`, out)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := cli.execute("users", "--format", "xml")
		assert.EqualError(t, err, `invalid format "xml": must be one of [text json yaml]`)
	})
}

func Test_commandLine_schedules(t *testing.T) {
	cli := setup(t)
	seed(t, cli.stores)

	out, err := cli.execute("schedules", "--format", "json")
	require.NoError(t, err)

	var got []scheduleRow
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 4)
	assert.Equal(t, scheduleRow{
		ID:             2,
		Date:           "2025-02-03",
		Title:          "School-wide assembly",
		Owner:          "lee",
		CreatorDisplay: "Mr. Lee",
		Shared:         true,
	}, got[1])
	assert.True(t, got[3].Done)
}

func Test_commandLine_calendar(t *testing.T) {
	cli := setup(t)
	seed(t, cli.stores)

	t.Run("viewer", func(t *testing.T) {
		out, err := cli.execute("calendar", "--year", "2025", "--month", "2", "--user", "kim", "--role", "student")
		require.NoError(t, err)

		g := goldie.New(t)
		g.Assert(t, "calendar_feb2025", []byte(out))
	})

	t.Run("every schedule", func(t *testing.T) {
		out, err := cli.execute("calendar", "--year", "2025", "--month", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "10 [personal] Ana's essay")
	})

	tests := []cliTest{
		{name: "invalid month", args: []string{"calendar", "--month", "13"}, wantErrStr: "invalid month 13"},
		{name: "unknown user", args: []string{"calendar", "--user", "lol"}, wantErr: user.ErrNotFound},
		{name: "wrong role", args: []string{"calendar", "--user", "kim", "--role", "teacher"}, wantErrStr: `"kim" is not a teacher`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cli.execute(tt.args...)
			checkErr(t, tt, err)
		})
	}
}
