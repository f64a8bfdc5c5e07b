package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/user"
	emailsvc "github.com/trezcool/freetime/services/email"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
	testutil "github.com/trezcool/freetime/tests"
)

type fixture struct {
	svc       event.Service
	repo      event.Repository
	usrRepo   user.Repository
	groupRepo group.Repository
}

func setup() fixture {
	db := inmemdb.Open()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	f := fixture{
		repo:      inmemdb.NewEventRepository(db),
		usrRepo:   inmemdb.NewUserRepository(db),
		groupRepo: inmemdb.NewGroupRepository(db),
	}
	groupSvc := group.NewService(f.groupRepo)
	f.svc = event.NewService(
		f.repo,
		groupSvc,
		user.NewService(f.usrRepo, mailSvc, conf),
		profile.NewService(inmemdb.NewProfileRepository(db), nil),
		mailSvc,
		logger,
	)
	emailsvc.ResetSentMessages()
	return f
}

func TestService_Create(t *testing.T) {
	f := setup()
	ctx := context.Background()
	jane := testutil.CreateUser(t, f.usrRepo, "jane@test.io", "", true)
	john := testutil.CreateUser(t, f.usrRepo, "john@test.io", "", true)
	off := testutil.CreateUser(t, f.usrRepo, "off@test.io", "", false)
	outsider := testutil.CreateUser(t, f.usrRepo, "out@test.io", "", true)
	g := testutil.CreateGroup(t, f.groupRepo, "Study", "ABC123", jane.ID, john.ID, off.ID)
	ne := event.NewEvent{Title: "Review", Date: "2024-05-10", StartTime: "10:00", Location: "Library"}

	_, err := f.svc.Create(ctx, outsider.ID, g.ID, ne)
	assert.Equal(t, group.ErrNotFound, err)

	e, err := f.svc.Create(ctx, jane.ID, g.ID, ne)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, jane.ID, e.CreatorID)
	assert.Equal(t, "Library", e.Location)

	require.Len(t, emailsvc.SentMessages, 1, "only active members other than the creator")
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, john.Email, msg.To[0].Address)
	assert.Equal(t, "New event in Study: Review", msg.Subject)
	assert.Contains(t, msg.TextContent, "Review")
	assert.Contains(t, msg.TextContent, "Library")
}

func TestService_Create_alone(t *testing.T) {
	f := setup()
	jane := testutil.CreateUser(t, f.usrRepo, "jane@test.io", "", true)
	g := testutil.CreateGroup(t, f.groupRepo, "Solo", "ABC123", jane.ID)

	_, err := f.svc.Create(context.Background(), jane.ID, g.ID, event.NewEvent{Title: "Focus", Date: "2024-05-10", StartTime: "10:00"})
	require.NoError(t, err)
	assert.Empty(t, emailsvc.SentMessages)
}

func TestService_QueryForGroup(t *testing.T) {
	f := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groupRepo, "Study", "ABC123", "jane", "john", "mary")
	other := testutil.CreateGroup(t, f.groupRepo, "Other", "XYZ789", "jane")

	create := func(groupID, title, date, start string) event.Event {
		e, err := f.repo.CreateEvent(ctx, event.Event{GroupID: groupID, CreatorID: "jane", Title: title, Date: date, StartTime: start, CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
		return e
	}
	lunch := create(g.ID, "Lunch", "2024-05-10", "12:00")
	review := create(g.ID, "Review", "2024-05-10", "09:00")
	party := create(g.ID, "Party", "2024-05-09", "20:00")
	create(other.ID, "Elsewhere", "2024-05-01", "08:00")

	for userID, response := range map[string]string{"jane": event.ResponseGoing, "john": event.ResponseMaybe, "mary": event.ResponseNotGoing} {
		_, err := f.svc.Respond(ctx, userID, review.ID, event.RespondEvent{Response: response})
		require.NoError(t, err)
	}
	_, err := f.svc.Respond(ctx, "john", party.ID, event.RespondEvent{Response: event.ResponseGoing})
	require.NoError(t, err)

	_, err = f.svc.QueryForGroup(ctx, "outsider", g.ID)
	assert.Equal(t, group.ErrNotFound, err)

	events, err := f.svc.QueryForGroup(ctx, "mary", g.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{party.ID, review.ID, lunch.ID}, []string{events[0].ID, events[1].ID, events[2].ID}, "by date then start time")
	assert.Equal(t, event.Tally{Going: 1}, events[0].Tally)
	assert.Equal(t, event.Tally{Going: 1, Maybe: 1, NotGoing: 1}, events[1].Tally)
	assert.Equal(t, event.Tally{}, events[2].Tally)

	mine, err := f.svc.ResponsesFor(ctx, "john", party.ID, review.ID, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{party.ID: event.ResponseGoing, review.ID: event.ResponseMaybe}, mine)

	mine, err = f.svc.ResponsesFor(ctx, "john")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestService_Respond(t *testing.T) {
	f := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groupRepo, "Study", "ABC123", "jane", "john")
	e, err := f.repo.CreateEvent(ctx, event.Event{GroupID: g.ID, CreatorID: "jane", Title: "Review", Date: "2024-05-10", StartTime: "10:00"})
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, "outsider", e.ID, event.RespondEvent{Response: event.ResponseGoing})
	assert.Equal(t, event.ErrNotFound, err)
	_, err = f.svc.Respond(ctx, "john", "lol", event.RespondEvent{Response: event.ResponseGoing})
	assert.Equal(t, event.ErrNotFound, err)

	r, err := f.svc.Respond(ctx, "john", e.ID, event.RespondEvent{Response: event.ResponseGoing})
	require.NoError(t, err)
	assert.False(t, r.RespondedAt.IsZero())

	_, err = f.svc.Respond(ctx, "john", e.ID, event.RespondEvent{Response: event.ResponseNotGoing})
	require.NoError(t, err)

	events, err := f.svc.QueryForGroup(ctx, "john", g.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Tally{NotGoing: 1}, events[0].Tally, "a new response replaces the previous one")
}

func TestService_Delete(t *testing.T) {
	f := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, f.groupRepo, "Study", "ABC123", "jane", "john")
	e, err := f.repo.CreateEvent(ctx, event.Event{GroupID: g.ID, CreatorID: "jane", Title: "Review", Date: "2024-05-10", StartTime: "10:00"})
	require.NoError(t, err)

	assert.Equal(t, event.ErrNotFound, f.svc.Delete(ctx, "outsider", e.ID))
	assert.Equal(t, event.ErrNotCreator, f.svc.Delete(ctx, "john", e.ID))
	require.NoError(t, f.svc.Delete(ctx, "jane", e.ID))
	assert.Equal(t, event.ErrNotFound, f.svc.Delete(ctx, "jane", e.ID))
}

func TestRespondEvent_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	re := event.RespondEvent{Response: " Not_Going "}
	require.NoError(t, re.Validate(validate))
	assert.Equal(t, event.ResponseNotGoing, re.Response)

	re = event.RespondEvent{Response: "perhaps"}
	err := re.Validate(validate)
	require.Error(t, err)
	verrs := err.(validator.ValidationErrors)
	assert.Equal(t, "response must be one of going, maybe or not_going", verrs[0].Translate(translator))
}

func TestInitValidators_keepsOneofTranslation(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	type color struct {
		Color string `json:"color" validate:"oneof=red blue"`
	}
	err := validate.Struct(color{Color: "green"})
	require.Error(t, err)
	verrs := err.(validator.ValidationErrors)
	assert.Equal(t, "color must be one of [red blue]", verrs[0].Translate(translator))
}

func TestNewEvent_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	tests := []struct {
		name string
		ne   event.NewEvent
		want map[string]string
	}{
		{
			name: "no end time",
			ne:   event.NewEvent{Title: " Review ", Date: "2024-05-10", StartTime: "10:00"},
			want: map[string]string{},
		},
		{
			name: "bad date",
			ne:   event.NewEvent{Title: "Review", Date: "10/05/2024", StartTime: "10:00"},
			want: map[string]string{"event_date": "event_date must be a date in YYYY-MM-DD format"},
		},
		{
			name: "ends when it starts",
			ne:   event.NewEvent{Title: "Review", Date: "2024-05-10", StartTime: "10:00", EndTime: "10:00"},
			want: map[string]string{"end_time": "end time must be after start time"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			fields := make(map[string]string)
			if verrs, ok := tt.ne.Validate(validate).(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					fields[fe.Field()] = fe.Translate(translator)
				}
			}
			assert.Equal(t, tt.want, fields)
		})
	}
}
