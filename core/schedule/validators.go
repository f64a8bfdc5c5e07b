package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/layout"
)

var (
	endAfterStartTag  = "endafterstart"
	endAfterStartText = "end time must be after start time"
)

// InitValidators registers schedule validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(scheduleStructValidation, NewSchedule{}, UpdateSchedule{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

// scheduleStructValidation checks that classes end after they start.
func scheduleStructValidation(sl validator.StructLevel) {
	switch s := sl.Current().Interface().(type) {
	case NewSchedule:
		validateEndAfterStart(s.StartTime, s.EndTime, sl)
	case UpdateSchedule:
		validateEndAfterStart(s.StartTime, s.EndTime, sl)
	}
}

func validateEndAfterStart(start, end string, sl validator.StructLevel) {
	startH, err := layout.ParseClock(start)
	if err != nil {
		return // reported by the clock tag
	}
	endH, err := layout.ParseClock(end)
	if err != nil {
		return
	}
	if endH <= startH {
		sl.ReportError(end, "end_time", "EndTime", endAfterStartTag, "")
	}
}
