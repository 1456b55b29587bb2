package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage"
)

// PrepareStores opens CSV tables in a temp dir, removed once the test ends.
func PrepareStores(t *testing.T) *storage.Stores {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: core.EngineCSV, DataDir: t.TempDir()}}
	stores, err := storage.Open(conf, nil)
	if err != nil {
		t.Fatalf("PrepareStores() failed: %v", err)
	}
	t.Cleanup(func() { _ = stores.Close() })
	return stores
}

func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, role user.Role, displayName ...string) user.User {
	t.Helper()
	usr := user.User{Username: uname, Role: role}
	if len(displayName) > 0 {
		usr.DisplayName = displayName[0]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateSchedule stores a schedule directly, bypassing the lifecycle rules.
func CreateSchedule(
	t *testing.T,
	repo schedule.Repository,
	id int,
	owner user.User,
	title string,
	date core.Date,
	shared bool,
	createdAt ...time.Time,
) schedule.Schedule {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s := schedule.Schedule{
		ID:             id,
		Owner:          owner.Username,
		OwnerRole:      owner.Role,
		Title:          title,
		Date:           date,
		Shared:         shared,
		CreatorDisplay: owner.Attribution(shared),
		CreatedAt:      tstamp,
	}
	s, err := repo.CreateSchedule(context.Background(), s)
	if err != nil {
		t.Fatalf("createSchedule() failed: %v", err)
	}
	return s
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t.UTC()} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// NopLogger discards every log.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
