package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
)

// RSVP responses
const (
	ResponseGoing    = "going"
	ResponseMaybe    = "maybe"
	ResponseNotGoing = "not_going"
)

// Tally counts the responses given to an Event.
type Tally struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"not_going"`
}

func (t *Tally) add(response string) {
	switch response {
	case ResponseGoing:
		t.Going++
	case ResponseMaybe:
		t.Maybe++
	case ResponseNotGoing:
		t.NotGoing++
	}
}

type Event struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"event_date"` // YYYY-MM-DD
	StartTime   string    `json:"start_time"` // HH:MM
	EndTime     string    `json:"end_time"`   // HH:MM, optional
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	Tally       Tally     `json:"tally"`
}

type Response struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Response    string    `json:"response"`
	RespondedAt time.Time `json:"responded_at"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"event_date" validate:"required,date"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"omitempty,clock"`
	Location    string `json:"location" validate:"max=200"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Date = core.CleanString(ne.Date)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Location = core.CleanString(ne.Location)
	return validate.Struct(ne)
}

type RespondEvent struct {
	Response string `json:"response" validate:"required,rsvp"`
}

func (re *RespondEvent) Validate(validate *validator.Validate) error {
	re.Response = core.CleanString(re.Response, true /* lower */)
	return validate.Struct(re)
}
