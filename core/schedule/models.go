package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
)

// Days of the week, Monday first.
var (
	DayNames      = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	DayShortNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

// Schedule is one weekly recurring class of a user.
type Schedule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ClassName string    `json:"class_name"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Monday .. 6 = Sunday
	StartTime string    `json:"start_time"`  // HH:MM
	EndTime   string    `json:"end_time"`    // HH:MM
	CreatedAt time.Time `json:"created_at"`
}

// NewSchedule contains information needed to create a new Schedule.
type NewSchedule struct {
	ClassName string `json:"class_name" validate:"required,max=100"`
	DayOfWeek *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	return validate.Struct(ns)
}

// UpdateSchedule defines what information may be provided to modify an existing Schedule.
// Omitted fields keep their current value.
type UpdateSchedule struct {
	ClassName string `json:"class_name" validate:"required,max=100"`
	DayOfWeek *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

func (us *UpdateSchedule) Validate(orig Schedule, validate *validator.Validate) error {
	if name := core.CleanString(us.ClassName); name != "" {
		us.ClassName = name
	} else {
		us.ClassName = orig.ClassName
	}
	if us.DayOfWeek == nil {
		day := orig.DayOfWeek
		us.DayOfWeek = &day
	}
	if start := core.CleanString(us.StartTime); start != "" {
		us.StartTime = start
	} else {
		us.StartTime = orig.StartTime
	}
	if end := core.CleanString(us.EndTime); end != "" {
		us.EndTime = end
	} else {
		us.EndTime = orig.EndTime
	}
	return validate.Struct(us)
}
