package event

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/layout"
)

var (
	endAfterStartTag  = "eventendafterstart"
	endAfterStartText = "end time must be after start time"

	responseTag  = "rsvp"
	responseText = "{0} must be one of going, maybe or not_going"
)

// InitValidators registers event validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newEventStructValidation, NewEvent{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
	_ = validate.RegisterValidation(responseTag, responseValidation)
	core.RegisterCustomTranslation(validate, translator, responseTag, responseText)
}

func responseValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ResponseGoing, ResponseMaybe, ResponseNotGoing:
		return true
	}
	return false
}

// newEventStructValidation checks that an optional end time comes after the start time.
func newEventStructValidation(sl validator.StructLevel) {
	ne := sl.Current().Interface().(NewEvent)
	if ne.EndTime == "" {
		return
	}
	start, err := layout.ParseClock(ne.StartTime)
	if err != nil {
		return // reported by the clock tag
	}
	end, err := layout.ParseClock(ne.EndTime)
	if err != nil {
		return
	}
	if end <= start {
		sl.ReportError(ne.EndTime, "end_time", "EndTime", endAfterStartTag, "")
	}
}
