package event

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/user"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("event not found")
	ErrNotCreator = core.NewForbiddenError("only the creator can delete this event")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
		// QueryEvents returns the events of a group ordered by date, start time and ID.
		QueryEvents(ctx context.Context, groupID string) ([]Event, error)

		// UpsertResponse inserts the response or replaces the user's previous one.
		UpsertResponse(ctx context.Context, r Response) (Response, error)
		QueryResponses(ctx context.Context, eventIDs ...string) ([]Response, error)
	}

	Service interface {
		Create(ctx context.Context, userID, groupID string, ne NewEvent) (Event, error)
		QueryForGroup(ctx context.Context, userID, groupID string) ([]Event, error)
		Delete(ctx context.Context, userID, id string) error
		Respond(ctx context.Context, userID, eventID string, re RespondEvent) (Response, error)
		// ResponsesFor maps each given event the user answered to the user's response.
		ResponsesFor(ctx context.Context, userID string, eventIDs ...string) (map[string]string, error)
	}

	service struct {
		repo       Repository
		groupSvc   group.Service
		userSvc    user.Service
		profileSvc profile.Service
		mailSvc    core.EmailService
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	groupSvc group.Service,
	userSvc user.Service,
	profileSvc profile.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		repo:       repo,
		groupSvc:   groupSvc,
		userSvc:    userSvc,
		profileSvc: profileSvc,
		mailSvc:    mailSvc,
		logger:     logger,
	}
}

func (svc *service) Create(ctx context.Context, userID, groupID string, ne NewEvent) (Event, error) {
	g, err := svc.groupSvc.Get(ctx, userID, groupID)
	if err != nil {
		return Event{}, err
	}

	e := Event{
		GroupID:     g.ID,
		CreatorID:   userID,
		Title:       ne.Title,
		Description: ne.Description,
		Date:        ne.Date,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Location:    ne.Location,
		CreatedAt:   time.Now().UTC(),
	}
	e, err = svc.repo.CreateEvent(ctx, e)
	if err != nil {
		return Event{}, errors.Wrap(err, "creating event")
	}

	svc.notifyMembers(ctx, g, e)
	return e, nil
}

// notifyMembers e-mails every member but the creator. Failures are logged, never returned.
func (svc *service) notifyMembers(ctx context.Context, g group.Group, e Event) {
	members, err := svc.groupSvc.Members(ctx, e.CreatorID, g.ID)
	if err != nil {
		svc.logger.Error("event.notifyMembers: querying members", err)
		return
	}
	creator, err := svc.profileSvc.Get(ctx, e.CreatorID)
	if err != nil {
		svc.logger.Error("event.notifyMembers: getting creator profile", err)
		return
	}

	var recipients []mail.Address
	for _, m := range members {
		if m.UserID == e.CreatorID {
			continue
		}
		usr, err := svc.userSvc.GetByID(ctx, m.UserID)
		if err != nil {
			svc.logger.Warn("event.notifyMembers: getting member", err, map[string]interface{}{"user_id": m.UserID})
			continue
		}
		if usr.IsActive {
			recipients = append(recipients, mail.Address{Address: usr.Email})
		}
	}
	if len(recipients) == 0 {
		return
	}

	data := struct {
		CreatorName string
		GroupID     string
		GroupName   string
		Title       string
		Description string
		Date        string
		StartTime   string
		EndTime     string
		Location    string
	}{
		CreatorName: creator.Label(),
		GroupID:     g.ID,
		GroupName:   g.Name,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
	}

	messages := make([]*core.EmailMessage, 0, len(recipients))
	for _, to := range recipients {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{to},
			Subject:      "New event in " + g.Name + ": " + e.Title,
			TemplateName: "event_created",
			TemplateData: data,
		})
	}
	svc.mailSvc.SendMessages(messages...)
}

func (svc *service) QueryForGroup(ctx context.Context, userID, groupID string) ([]Event, error) {
	if _, err := svc.groupSvc.Membership(ctx, userID, groupID); err != nil {
		return nil, err
	}
	events, err := svc.repo.QueryEvents(ctx, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	if len(events) == 0 {
		return events, nil
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	responses, err := svc.repo.QueryResponses(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	tallies := make(map[string]*Tally, len(events))
	for i := range events {
		tallies[events[i].ID] = &events[i].Tally
	}
	for _, r := range responses {
		if t, ok := tallies[r.EventID]; ok {
			t.add(r.Response)
		}
	}
	return events, nil
}

// get returns the event when userID belongs to its group.
func (svc *service) get(ctx context.Context, userID, id string) (Event, error) {
	e, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if _, err = svc.groupSvc.Membership(ctx, userID, e.GroupID); err != nil {
		if core.IsNotFound(err) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return e, nil
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	e, err := svc.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if e.CreatorID != userID {
		return ErrNotCreator
	}
	return svc.repo.DeleteEvent(ctx, id)
}

func (svc *service) Respond(ctx context.Context, userID, eventID string, re RespondEvent) (Response, error) {
	if _, err := svc.get(ctx, userID, eventID); err != nil {
		return Response{}, err
	}
	r, err := svc.repo.UpsertResponse(ctx, Response{
		EventID:     eventID,
		UserID:      userID,
		Response:    re.Response,
		RespondedAt: time.Now().UTC(),
	})
	if err != nil {
		return Response{}, errors.Wrap(err, "saving response")
	}
	return r, nil
}

func (svc *service) ResponsesFor(ctx context.Context, userID string, eventIDs ...string) (map[string]string, error) {
	mine := make(map[string]string)
	if len(eventIDs) == 0 {
		return mine, nil
	}
	responses, err := svc.repo.QueryResponses(ctx, eventIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	for _, r := range responses {
		if r.UserID == userID {
			mine[r.EventID] = r.Response
		}
	}
	return mine, nil
}
