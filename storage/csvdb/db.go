package csvdb

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	usersFile     = "users.csv"
	schedulesFile = "schedules.csv"
	checksFile    = "user_schedule_status.csv"
)

var (
	utf8BOM = []byte("\ufeff")

	usersHeader     = []string{"username", "password", "role", "teacher_name"}
	schedulesHeader = []string{"id", "username", "role", "title", "description", "date", "shared", "creator_display", "checked_at", "done", "created_at"}
	checksHeader    = []string{"username", "schedule_id", "checked_at", "done"}
)

type (
	// DB is a directory of CSV tables. Every write replaces the whole table file atomically.
	DB struct {
		dir       string
		users     *table
		schedules *table
		checks    *table
	}

	table struct {
		sync.RWMutex
		path   string
		header []string
	}

	row map[string]string
)

func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating data dir %s", dir)
	}
	db := &DB{
		dir:       dir,
		users:     &table{path: filepath.Join(dir, usersFile), header: usersHeader},
		schedules: &table{path: filepath.Join(dir, schedulesFile), header: schedulesHeader},
		checks:    &table{path: filepath.Join(dir, checksFile), header: checksHeader},
	}
	if err := db.hashLegacyPasswords(); err != nil {
		return nil, errors.Wrap(err, "upgrading users table")
	}
	return db, nil
}

func (db *DB) Dir() string { return db.dir }

func (db *DB) Close() error { return nil }

// read loads every row of the table keyed by column name. A missing file is an empty table.
func (t *table) read() ([]row, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", t.path)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	rdr := csv.NewReader(bytes.NewReader(data))
	rdr.FieldsPerRecord = -1
	records, err := rdr.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", t.path)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		r := make(row, len(header))
		for i, col := range header {
			if i < len(rec) {
				r[strings.TrimSpace(col)] = rec[i]
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// write replaces the table with `rows` through a temp file renamed over the original,
// so readers never see a partially written table.
func (t *table) write(rows []row) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), "."+filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", t.path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(utf8BOM); err != nil {
		return errors.Wrap(err, "writing BOM")
	}
	w := csv.NewWriter(tmp)
	if err = w.Write(t.header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, r := range rows {
		rec := make([]string, len(t.header))
		for i, col := range t.header {
			rec[i] = r[col]
		}
		if err = w.Write(rec); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrap(err, "flushing rows")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "syncing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmp.Name(), t.path); err != nil {
		return errors.Wrapf(err, "replacing %s", t.path)
	}
	return nil
}
