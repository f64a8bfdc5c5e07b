package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/freetime/core"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
}

type Member struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

type JoinGroup struct {
	InviteCode string `json:"invite_code" validate:"required,len=6,alphanum"`
}

func (jg *JoinGroup) Validate(validate *validator.Validate) error {
	jg.InviteCode = CleanInviteCode(jg.InviteCode)
	return validate.Struct(jg)
}
