package storage

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/csvdb"
	"github.com/trezcool/ratiba/storage/database"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

// Stores groups the repositories of the configured storage engine.
type Stores struct {
	Users     user.Repository
	Schedules schedule.Repository
	Checks    schedule.CheckRepository
	SQL       *sql.DB // nil for csv tables

	close func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open opens the storage engine set by `database.engine`. SQL databases are migrated up.
func Open(conf *core.Config, log core.Logger) (*Stores, error) {
	switch conf.Database.Engine {
	case core.EngineCSV, "":
		db, err := csvdb.Open(conf.Database.DataDir)
		if err != nil {
			return nil, errors.Wrap(err, "opening csv tables")
		}
		return &Stores{
			Users:     csvdb.NewUserRepository(db),
			Schedules: csvdb.NewScheduleRepository(db),
			Checks:    csvdb.NewCheckRepository(db),
			close:     db.Close,
		}, nil

	case core.EngineSQLite, core.EnginePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if log != nil {
			database.SetLogger(log)
		}
		if err = database.Migrate(db.DB, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Stores{
			Users:     sqlxrepos.NewUserRepository(db),
			Schedules: sqlxrepos.NewScheduleRepository(db),
			Checks:    sqlxrepos.NewCheckRepository(db),
			SQL:       db.DB,
			close:     db.Close,
		}, nil

	default:
		return nil, errors.Errorf("unknown storage engine %q", conf.Database.Engine)
	}
}
