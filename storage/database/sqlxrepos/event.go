package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/freetime/core/event"
)

const (
	eventSelect = `
		SELECT id, group_id, creator_id, title, description, to_char(event_date, 'YYYY-MM-DD') AS event_date,
			start_time, end_time, location, created_at
		FROM event`
	responseColumns = `event_id, user_id, response, responded_at`
)

type eventRow struct {
	ID          string      `db:"id"`
	GroupID     string      `db:"group_id"`
	CreatorID   string      `db:"creator_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Date        string      `db:"event_date"`
	StartTime   string      `db:"start_time"`
	EndTime     null.String `db:"end_time"`
	Location    null.String `db:"location"`
	CreatedAt   time.Time   `db:"created_at"`
}

func toEventRow(e event.Event) eventRow {
	return eventRow{
		ID:          e.ID,
		GroupID:     e.GroupID,
		CreatorID:   e.CreatorID,
		Title:       e.Title,
		Description: null.NewString(e.Description, e.Description != ""),
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     null.NewString(e.EndTime, e.EndTime != ""),
		Location:    null.NewString(e.Location, e.Location != ""),
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

func (r eventRow) toEvent() event.Event {
	return event.Event{
		ID:          r.ID,
		GroupID:     r.GroupID,
		CreatorID:   r.CreatorID,
		Title:       r.Title,
		Description: r.Description.String,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime.String,
		Location:    r.Location.String,
		CreatedAt:   r.CreatedAt,
	}
}

type responseRow struct {
	EventID     string    `db:"event_id"`
	UserID      string    `db:"user_id"`
	Response    string    `db:"response"`
	RespondedAt time.Time `db:"responded_at"`
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.New().String()
	row := toEventRow(e)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO event (id, group_id, creator_id, title, description, event_date, start_time, end_time, location, created_at)
		VALUES (:id, :group_id, :creator_id, :title, :description, :event_date, :start_time, :end_time, :location, :created_at)`, row)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return row.toEvent(), nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, eventSelect+` WHERE id = $1`, id); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "selecting event")
	}
	return row.toEvent(), nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return checkAffected(res, event.ErrNotFound)
}

func (repo *eventRepository) QueryEvents(ctx context.Context, groupID string) ([]event.Event, error) {
	var rows []eventRow
	err := repo.db.SelectContext(ctx, &rows, eventSelect+`
		WHERE group_id = $1
		ORDER BY event_date, start_time, id`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}
	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (repo *eventRepository) UpsertResponse(ctx context.Context, r event.Response) (event.Response, error) {
	row := responseRow{
		EventID:     r.EventID,
		UserID:      r.UserID,
		Response:    r.Response,
		RespondedAt: r.RespondedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO event_response (`+responseColumns+`)
		VALUES (:event_id, :user_id, :response, :responded_at)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET response = EXCLUDED.response, responded_at = EXCLUDED.responded_at`, row)
	if err != nil {
		return event.Response{}, errors.Wrap(err, "upserting response")
	}
	return event.Response(row), nil
}

func (repo *eventRepository) QueryResponses(ctx context.Context, eventIDs ...string) ([]event.Response, error) {
	if len(eventIDs) == 0 {
		return []event.Response{}, nil
	}
	var rows []responseRow
	err := selectIn(ctx, repo.db, &rows, `
		SELECT `+responseColumns+` FROM event_response
		WHERE event_id IN (?)
		ORDER BY event_id, user_id`, eventIDs)
	if err != nil {
		return nil, errors.Wrap(err, "selecting responses")
	}
	responses := make([]event.Response, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, event.Response(r))
	}
	return responses, nil
}
