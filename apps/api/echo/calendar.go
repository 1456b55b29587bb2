package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type calendarApi struct {
	svc *schedule.Service
}

func registerCalendarAPI(g *echo.Group, svc *schedule.Service, authed []echo.MiddlewareFunc) {
	api := calendarApi{svc: svc}
	g.GET("/calendar", api.month, authed...)
}

func (api *calendarApi) month(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var q MonthQuery
	if err = q.Bind(ctx); err != nil {
		return err
	}

	m, err := api.svc.Calendar(ctx.Request().Context(), usr, q.Year, q.Month)
	if err != nil {
		return errors.Wrap(err, "projecting calendar")
	}
	return ctx.JSON(http.StatusOK, m)
}
