package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type (
	scheduleApi struct {
		svc *schedule.Service
	}

	// scheduleDetail adds the viewer's own check mark to a schedule.
	scheduleDetail struct {
		schedule.Schedule
		ShortTitle string `json:"short_title"`
		Checked    bool   `json:"checked"`
	}
)

func registerScheduleAPI(g *echo.Group, svc *schedule.Service, authed []echo.MiddlewareFunc) {
	api := scheduleApi{svc: svc}

	sg := g.Group("/schedules", authed...)
	sg.GET("", api.list)
	sg.POST("", api.create)

	// detail endpoints
	dg := sg.Group("/:id", visibleScheduleMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, ownerOrAdminMiddleware())
	dg.DELETE("", api.destroy, ownerOrAdminMiddleware())
	dg.PUT("/check", api.check)
	dg.PUT("/complete", api.complete, ownerOrAdminMiddleware())
}

// Handlers

func (api *scheduleApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	view, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing schedules")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data schedule.NewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}

	s, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	s, err := getContextSchedule(ctx)
	if err != nil {
		return err
	}
	return api.detail(ctx, s, http.StatusOK)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	s, err := getContextSchedule(ctx)
	if err != nil {
		return err
	}
	var data schedule.UpdateSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}

	if s, err = api.svc.Update(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return api.detail(ctx, s, http.StatusOK)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	s, err := getContextSchedule(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// check toggles the viewer's own check mark; the schedule itself is unchanged.
func (api *scheduleApi) check(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	s, err := getContextSchedule(ctx)
	if err != nil {
		return err
	}
	var data schedule.SetChecked
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetChecked")
	}

	if err = api.svc.SetViewerChecked(ctx.Request().Context(), usr, s.ID, data.Checked); err != nil {
		return errors.Wrap(err, "setting check mark")
	}
	return api.detail(ctx, s, http.StatusOK)
}

func (api *scheduleApi) complete(ctx echo.Context) error {
	s, err := getContextSchedule(ctx)
	if err != nil {
		return err
	}
	var data schedule.SetChecked
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetChecked")
	}

	if s, err = api.svc.SetChecked(ctx.Request().Context(), s.ID, data.Checked); err != nil {
		return errors.Wrap(err, "checking schedule")
	}
	return api.detail(ctx, s, http.StatusOK)
}

func (api *scheduleApi) detail(ctx echo.Context, s schedule.Schedule, code int) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	checked, err := api.svc.Ledger().IsChecked(ctx.Request().Context(), usr.Username, s.ID)
	if err != nil {
		return errors.Wrap(err, "reading check mark")
	}
	return ctx.JSON(code, scheduleDetail{Schedule: s, ShortTitle: s.ShortTitle(), Checked: checked})
}
