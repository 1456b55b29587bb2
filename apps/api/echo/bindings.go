package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

const (
	yearParam  = "year"
	monthParam = "month"
)

// MonthQuery is the `?year=&month=` pair of the calendar endpoints.
// Missing values default to the current UTC month.
type MonthQuery struct {
	Year  int
	Month time.Month
}

func (q *MonthQuery) Bind(ctx echo.Context) error {
	now := core.NowUTC()
	q.Year, q.Month = now.Year(), now.Month()

	if val := ctx.QueryParam(yearParam); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil || year < 1 || year > 9999 {
			return errInvalidMonthArg
		}
		q.Year = year
	}
	if val := ctx.QueryParam(monthParam); val != "" {
		month, err := strconv.Atoi(val)
		if err != nil || month < 1 || month > 12 {
			return errInvalidMonthArg
		}
		q.Month = time.Month(month)
	}
	return nil
}
