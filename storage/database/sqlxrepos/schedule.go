package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/schedule"
)

const scheduleColumns = `id, user_id, class_name, day_of_week, start_time, end_time, created_at`

type scheduleRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ClassName string    `db:"class_name"`
	DayOfWeek int       `db:"day_of_week"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	CreatedAt time.Time `db:"created_at"`
}

func toScheduleRow(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:        s.ID,
		UserID:    s.UserID,
		ClassName: s.ClassName,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func (r scheduleRow) toSchedule() schedule.Schedule {
	return schedule.Schedule(r)
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	s.ID = uuid.New().String()
	row := toScheduleRow(s)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO schedule (`+scheduleColumns+`)
		VALUES (:id, :user_id, :class_name, :day_of_week, :start_time, :end_time, :created_at)`, row)
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) GetSchedule(ctx context.Context, id string) (schedule.Schedule, error) {
	var row scheduleRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+scheduleColumns+` FROM schedule WHERE id = $1`, id); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "selecting schedule")
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	row := toScheduleRow(s)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE schedule
		SET class_name = :class_name, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time
		WHERE id = :id`, row)
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "updating schedule")
	}
	if err = checkAffected(res, schedule.ErrNotFound); err != nil {
		return schedule.Schedule{}, err
	}
	return row.toSchedule(), nil
}

func (repo *scheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return checkAffected(res, schedule.ErrNotFound)
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, userIDs ...string) ([]schedule.Schedule, error) {
	if len(userIDs) == 0 {
		return []schedule.Schedule{}, nil
	}
	var rows []scheduleRow
	err := selectIn(ctx, repo.db, &rows, `
		SELECT `+scheduleColumns+` FROM schedule
		WHERE user_id IN (?)
		ORDER BY day_of_week, start_time, id`, userIDs)
	if err != nil {
		return nil, errors.Wrap(err, "selecting schedules")
	}
	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, r.toSchedule())
	}
	return schedules, nil
}
