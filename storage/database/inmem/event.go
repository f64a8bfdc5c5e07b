package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/event"
)

type eventRepository struct {
	db *DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(_ context.Context, e event.Event) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = uuid.New().String()
	e.Tally = event.Tally{}
	repo.db.events[e.ID] = e
	return e, nil
}

func (repo *eventRepository) GetEvent(_ context.Context, id string) (event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.events[id]; ok {
		return e, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) DeleteEvent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(repo.db.events, id)
	for key := range repo.db.responses {
		if key.eventID == id {
			delete(repo.db.responses, key)
		}
	}
	return nil
}

func (repo *eventRepository) QueryEvents(_ context.Context, groupID string) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]event.Event, 0)
	for _, e := range repo.db.events {
		if e.GroupID == groupID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		ei, ej := events[i], events[j]
		if ei.Date != ej.Date {
			return ei.Date < ej.Date
		}
		if ei.StartTime != ej.StartTime {
			return ei.StartTime < ej.StartTime
		}
		return ei.ID < ej.ID
	})
	return events, nil
}

func (repo *eventRepository) UpsertResponse(_ context.Context, r event.Response) (event.Response, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.events[r.EventID]; !ok {
		return event.Response{}, event.ErrNotFound
	}
	repo.db.responses[responseKey{r.EventID, r.UserID}] = r
	return r, nil
}

func (repo *eventRepository) QueryResponses(_ context.Context, eventIDs ...string) ([]event.Response, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	responses := make([]event.Response, 0)
	for key, r := range repo.db.responses {
		if core.ContainsString(eventIDs, key.eventID) {
			responses = append(responses, r)
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		if responses[i].EventID != responses[j].EventID {
			return responses[i].EventID < responses[j].EventID
		}
		return responses[i].UserID < responses[j].UserID
	})
	return responses, nil
}
