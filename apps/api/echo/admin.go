package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

type adminApi struct {
	users     *user.Service
	schedules *schedule.Service
}

func registerAdminAPI(g *echo.Group, users *user.Service, schedules *schedule.Service, adminOnly []echo.MiddlewareFunc) {
	api := adminApi{users: users, schedules: schedules}

	ag := g.Group("/admin", adminOnly...)
	ag.GET("/users", api.listUsers)
	ag.GET("/schedules", api.listSchedules)
	ag.DELETE("/schedules", api.resetSchedules)
	ag.DELETE("/checks", api.resetChecks)
}

func (api *adminApi) listUsers(ctx echo.Context) error {
	users, err := api.users.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) listSchedules(ctx echo.Context) error {
	events, err := api.schedules.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if events == nil {
		events = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *adminApi) resetSchedules(ctx echo.Context) error {
	n, err := api.schedules.ResetAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resetting schedules")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"deleted": n})
}

func (api *adminApi) resetChecks(ctx echo.Context) error {
	if err := api.schedules.ResetChecks(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "resetting checks")
	}
	return ctx.NoContent(http.StatusNoContent)
}
