package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("schedule not found")
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		GetSchedule(ctx context.Context, id string) (Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		DeleteSchedule(ctx context.Context, id string) error
		// QuerySchedules returns the schedules of the given users ordered by day, start time and ID.
		QuerySchedules(ctx context.Context, userIDs ...string) ([]Schedule, error)
	}

	Service interface {
		Create(ctx context.Context, userID string, ns NewSchedule) (Schedule, error)
		// Get returns ErrNotFound for schedules of other users.
		Get(ctx context.Context, userID, id string) (Schedule, error)
		Update(ctx context.Context, orig Schedule, us UpdateSchedule) (Schedule, error)
		Delete(ctx context.Context, userID, id string) error
		QueryForUser(ctx context.Context, userID string) ([]Schedule, error)
		QueryForUsers(ctx context.Context, userIDs ...string) ([]Schedule, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, userID string, ns NewSchedule) (Schedule, error) {
	s := Schedule{
		UserID:    userID,
		ClassName: ns.ClassName,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		CreatedAt: time.Now().UTC(),
	}
	if ns.DayOfWeek != nil {
		s.DayOfWeek = *ns.DayOfWeek
	}
	s, err := svc.repo.CreateSchedule(ctx, s)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "creating schedule")
	}
	return s, nil
}

func (svc *service) Get(ctx context.Context, userID, id string) (Schedule, error) {
	s, err := svc.repo.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if s.UserID != userID {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}

func (svc *service) Update(ctx context.Context, orig Schedule, us UpdateSchedule) (Schedule, error) {
	s := orig
	s.ClassName = us.ClassName
	s.StartTime = us.StartTime
	s.EndTime = us.EndTime
	if us.DayOfWeek != nil {
		s.DayOfWeek = *us.DayOfWeek
	}
	s, err := svc.repo.UpdateSchedule(ctx, s)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "updating schedule")
	}
	return s, nil
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	if _, err := svc.Get(ctx, userID, id); err != nil {
		return err
	}
	return svc.repo.DeleteSchedule(ctx, id)
}

func (svc *service) QueryForUser(ctx context.Context, userID string) ([]Schedule, error) {
	return svc.QueryForUsers(ctx, userID)
}

func (svc *service) QueryForUsers(ctx context.Context, userIDs ...string) ([]Schedule, error) {
	if len(userIDs) == 0 {
		return []Schedule{}, nil
	}
	schedules, err := svc.repo.QuerySchedules(ctx, userIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	return schedules, nil
}
