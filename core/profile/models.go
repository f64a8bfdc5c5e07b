package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
)

// Profile holds the public identity of a user. A user without a stored profile has the zero Profile.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Label is the name shown for the user in shared views: the display name, or a shortened user ID.
func (p Profile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return ShortID(p.UserID)
}

// ShortID abbreviates an ID to its first 8 characters.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

type UpdateProfile struct {
	DisplayName string `json:"display_name" validate:"max=60"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.DisplayName = core.CleanString(up.DisplayName)
	return validate.Struct(up)
}
