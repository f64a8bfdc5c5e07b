package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
)

type (
	groupApiDeps struct {
		svc         group.Service
		profileSvc  profile.Service
		calendarSvc calendar.Service
		eventSvc    event.Service
		theme       calendar.Theme
		validate    *validator.Validate
		joinLimiter *userRateLimiter
	}

	groupApi struct {
		groupApiDeps
	}
)

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps groupApiDeps) {
	api := groupApi{deps}

	gg := g.Group("/groups", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create)
	gg.POST("/join", api.join, api.joinLimiter.middleware)

	// member endpoints
	mg := gg.Group("/:id", groupMemberMiddleware(api.svc))
	mg.GET("", api.retrieve)
	mg.POST("/leave", api.leave)
	mg.POST("/invite-code", api.regenerateInviteCode)
	mg.DELETE("/members/:userID", api.removeMember)
	mg.GET("/calendar", api.getCalendar)
	mg.GET("/calendar.svg", api.getCalendarSVG)
	mg.GET("/events", api.queryEvents)
	mg.POST("/events", api.createEvent)
}

// Handlers

func (api *groupApi) query(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	groups, err := api.svc.QueryForUser(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) create(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data group.NewGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) join(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data group.JoinGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinGroup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Join(ctx.Request().Context(), userID, data.InviteCode)
	if err != nil {
		return errors.Wrap(err, "joining group")
	}
	api.calendarSvc.Invalidate(ctx.Request().Context(), g.ID)
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	groupID := ctx.Param("id")

	g, err := api.svc.Get(reqCtx, userID, groupID)
	if err != nil {
		return errors.Wrap(err, "getting group")
	}
	members, err := api.svc.Members(reqCtx, userID, groupID)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	profiles, err := api.profileSvc.ProfilesFor(reqCtx, ids...)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}

	detail := GroupDetail{Group: g, Members: make([]MemberDetail, 0, len(members))}
	for _, m := range members {
		p := profiles[m.UserID]
		detail.Members = append(detail.Members, MemberDetail{
			Member:      m,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Label:       p.Label(),
		})
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *groupApi) leave(ctx echo.Context) error {
	m, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Leave(ctx.Request().Context(), m.UserID, m.GroupID); err != nil {
		return errors.Wrap(err, "leaving group")
	}
	api.calendarSvc.Invalidate(ctx.Request().Context(), m.GroupID)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) regenerateInviteCode(ctx echo.Context) error {
	m, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	g, err := api.svc.RegenerateInviteCode(ctx.Request().Context(), m.UserID, m.GroupID)
	if err != nil {
		return errors.Wrap(err, "regenerating invite code")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) removeMember(ctx echo.Context) error {
	m, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveMember(ctx.Request().Context(), m.UserID, m.GroupID, ctx.Param("userID")); err != nil {
		return errors.Wrap(err, "removing member")
	}
	api.calendarSvc.Invalidate(ctx.Request().Context(), m.GroupID)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) buildWeek(ctx echo.Context) (calendar.Week, error) {
	m, err := getContextMember(ctx)
	if err != nil {
		return calendar.Week{}, err
	}
	week, err := api.calendarSvc.Build(ctx.Request().Context(), m.UserID, m.GroupID, bindHidden(ctx)...)
	if err != nil {
		return calendar.Week{}, errors.Wrap(err, "building calendar")
	}
	return week, nil
}

func (api *groupApi) getCalendar(ctx echo.Context) error {
	week, err := api.buildWeek(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, week)
}

func (api *groupApi) getCalendarSVG(ctx echo.Context) error {
	week, err := api.buildWeek(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = calendar.RenderSVG(&buf, week, api.theme); err != nil {
		return errors.Wrap(err, "rendering calendar")
	}
	return ctx.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (api *groupApi) queryEvents(ctx echo.Context) error {
	m, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	events, err := api.eventSvc.QueryForGroup(reqCtx, m.UserID, m.GroupID)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	mine, err := api.eventSvc.ResponsesFor(reqCtx, m.UserID, ids...)
	if err != nil {
		return errors.Wrap(err, "querying responses")
	}

	res := make([]EventDetail, 0, len(events))
	for _, e := range events {
		res = append(res, EventDetail{Event: e, MyResponse: mine[e.ID]})
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *groupApi) createEvent(ctx echo.Context) error {
	m, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data event.NewEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.eventSvc.Create(ctx.Request().Context(), m.UserID, m.GroupID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

type (
	MemberDetail struct {
		group.Member
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
		Label       string `json:"label"`
	}

	GroupDetail struct {
		group.Group
		Members []MemberDetail `json:"members"`
	}

	EventDetail struct {
		event.Event
		MyResponse string `json:"my_response,omitempty"`
	}
)
