package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// visibleScheduleMiddleware loads the `:id` schedule into the context,
// answering 404 when the context user cannot see it.
func visibleScheduleMiddleware(svc *schedule.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return errHttpNotFound
			}
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}

			s, err := svc.GetVisible(ctx.Request().Context(), usr, id)
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, s)
			return next(ctx)
		}
	}
}

// ownerOrAdminMiddleware must run after visibleScheduleMiddleware.
func ownerOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			s, err := getContextSchedule(ctx)
			if err != nil {
				return err
			}
			if !s.EditableBy(usr) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func getContextSchedule(ctx echo.Context) (schedule.Schedule, error) {
	if s, ok := ctx.Get(contextObjectKey).(schedule.Schedule); ok {
		return s, nil
	}
	return schedule.Schedule{}, errors.New("schedule object not found in echo.Context")
}
