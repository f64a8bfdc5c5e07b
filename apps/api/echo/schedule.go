package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/schedule"
)

const contextScheduleKey = "schedule"

var errScheduleNotFoundInCtx = errors.New("schedule object not found in echo.Context")

type scheduleApi struct {
	svc         schedule.Service
	calendarSvc calendar.Service
	validate    *validator.Validate
}

func registerScheduleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc schedule.Service,
	calendarSvc calendar.Service,
	validate *validator.Validate,
) {
	api := scheduleApi{
		svc:         svc,
		calendarSvc: calendarSvc,
		validate:    validate,
	}

	sg := g.Group("/schedules", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail endpoints
	dg := sg.Group("/:id", api.ownScheduleMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// ownScheduleMiddleware loads the schedule :id of the authenticated user into the context.
func (api *scheduleApi) ownScheduleMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		userID, err := getContextUserID(ctx)
		if err != nil {
			return err
		}
		s, err := api.svc.Get(ctx.Request().Context(), userID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "getting schedule")
		}
		ctx.Set(contextScheduleKey, s)
		return next(ctx)
	}
}

// Handlers

func (api *scheduleApi) query(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	schedules, err := api.svc.QueryForUser(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if schedules == nil {
		schedules = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data schedule.NewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	api.calendarSvc.InvalidateForUser(ctx.Request().Context(), userID)
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	s, ok := ctx.Get(contextScheduleKey).(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	s, ok := ctx.Get(contextScheduleKey).(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}

	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(s, api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	api.calendarSvc.InvalidateForUser(ctx.Request().Context(), s.UserID)
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	s, ok := ctx.Get(contextScheduleKey).(schedule.Schedule)
	if !ok {
		return errors.Wrap(errScheduleNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), s.UserID, s.ID); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	api.calendarSvc.InvalidateForUser(ctx.Request().Context(), s.UserID)
	return ctx.NoContent(http.StatusNoContent)
}
