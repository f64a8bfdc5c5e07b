package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/group"
)

const contextMemberKey = "member"

var errMemberNotFoundInCtx = errors.New("member object not found in echo.Context")

// groupMemberMiddleware only lets members of the group :id through. Their membership is stored in the context.
func groupMemberMiddleware(svc group.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID, err := getContextUserID(ctx)
			if err != nil {
				return err
			}
			m, err := svc.Membership(ctx.Request().Context(), userID, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "getting membership")
			}
			ctx.Set(contextMemberKey, m)
			return next(ctx)
		}
	}
}

func getContextMember(ctx echo.Context) (group.Member, error) {
	if m, ok := ctx.Get(contextMemberKey).(group.Member); ok {
		return m, nil
	}
	return group.Member{}, errors.Wrap(errMemberNotFoundInCtx, "retrieving object from context")
}
