package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/profile"
)

type profileApi struct {
	svc           profile.Service
	calendarSvc   calendar.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerProfileAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc profile.Service,
	calendarSvc calendar.Service,
	validate *validator.Validate,
	maxUploadSize int64,
) {
	api := profileApi{
		svc:           svc,
		calendarSvc:   calendarSvc,
		validate:      validate,
		maxUploadSize: maxUploadSize,
	}

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
	pg.PUT("/avatar", api.uploadAvatar)
}

// Handlers

func (api *profileApi) retrieve(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data profile.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	api.calendarSvc.InvalidateForUser(ctx.Request().Context(), userID)
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) uploadAvatar(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	req := ctx.Request()
	if api.maxUploadSize > 0 {
		req.Body = http.MaxBytesReader(ctx.Response(), req.Body, api.maxUploadSize)
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return echo.ErrStatusRequestEntityTooLarge
		case errors.Cause(err) == http.ErrMissingFile, errors.Cause(err) == http.ErrNotMultipart:
			return errMissingFile
		}
		return errors.Wrap(err, "reading form file")
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	p, err := api.svc.UploadAvatar(req.Context(), userID, fh.Filename, file)
	if err != nil {
		return errors.Wrap(err, "uploading avatar")
	}
	api.calendarSvc.InvalidateForUser(req.Context(), userID)
	return ctx.JSON(http.StatusOK, p)
}
