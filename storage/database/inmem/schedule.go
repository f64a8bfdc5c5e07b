package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.schedules[s.ID] = s
	return s, nil
}

func (repo *scheduleRepository) GetSchedule(_ context.Context, id string) (schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.schedules[id]; ok {
		return s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) UpdateSchedule(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schedules[s.ID]; !ok {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	repo.db.schedules[s.ID] = s
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedule(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schedules[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.schedules, id)
	return nil
}

func (repo *scheduleRepository) QuerySchedules(_ context.Context, userIDs ...string) ([]schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schedules := make([]schedule.Schedule, 0)
	for _, s := range repo.db.schedules {
		if core.ContainsString(userIDs, s.UserID) {
			schedules = append(schedules, s)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		si, sj := schedules[i], schedules[j]
		if si.DayOfWeek != sj.DayOfWeek {
			return si.DayOfWeek < sj.DayOfWeek
		}
		if si.StartTime != sj.StartTime {
			return si.StartTime < sj.StartTime
		}
		return si.ID < sj.ID
	})
	return schedules, nil
}
