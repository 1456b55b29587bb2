package csvdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// naive timestamps written by the first version of the app, in local time
var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func isEmpty(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "NaT" || s == "nan"
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func parseBool(s string) (bool, error) {
	if isEmpty(s) {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return b, errors.Wrapf(err, "invalid boolean %q", s)
}

// formatLegacyFlag writes the unused ledger done flag the way it has always been stored.
func formatLegacyFlag(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	if isEmpty(s) {
		return time.Time{}, nil
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid timestamp %q", s)
}

func parseTimePtr(s string) (*time.Time, error) {
	t, err := parseTime(s)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func formatDate(d core.Date) string {
	return d.String()
}

func parseDate(s string) (core.Date, error) {
	if isEmpty(s) {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	// pandas float columns: "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return int(f), nil
}
