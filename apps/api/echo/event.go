package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/event"
)

type eventApi struct {
	svc      event.Service
	validate *validator.Validate
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc event.Service, validate *validator.Validate) {
	api := eventApi{
		svc:      svc,
		validate: validate,
	}

	eg := g.Group("/events", jwt)
	eg.DELETE("/:id", api.destroy)
	eg.PUT("/:id/response", api.respond)
}

// Handlers

func (api *eventApi) destroy(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), userID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) respond(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data event.RespondEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RespondEvent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Respond(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "responding to event")
	}
	return ctx.JSON(http.StatusOK, r)
}
