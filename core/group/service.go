package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("group not found")
	ErrMemberNotFound    = core.NewNotFoundError("member not found")
	ErrNotAdmin          = core.NewForbiddenError("only group admins can do this")
	ErrInviteCodeTaken   = errors.New("invite code already in use")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrAlreadyMember     = errors.New("you are already a member of this group")
	ErrRemoveSelf        = errors.New("use leave to remove yourself from a group")
)

type (
	Repository interface {
		// CreateGroup stores g and its first member. Returns ErrInviteCodeTaken on invite code collision.
		CreateGroup(ctx context.Context, g Group, admin Member) (Group, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		GetGroupByInviteCode(ctx context.Context, code string) (Group, error)
		// QueryGroupsForUser returns the groups userID belongs to, most recently joined first.
		QueryGroupsForUser(ctx context.Context, userID string) ([]Group, error)
		// UpdateInviteCode returns ErrInviteCodeTaken on collision.
		UpdateInviteCode(ctx context.Context, groupID, code string) error

		// AddMember returns ErrAlreadyMember when the membership exists.
		AddMember(ctx context.Context, m Member) error
		GetMember(ctx context.Context, groupID, userID string) (Member, error)
		// QueryMembers returns the members of a group, earliest joined first.
		QueryMembers(ctx context.Context, groupID string) ([]Member, error)
		RemoveMember(ctx context.Context, groupID, userID string) error
		// LeaveGroup atomically removes userID, promotes the earliest-joined member when no admin is left
		// and deletes the group when no member is left. Returns ErrMemberNotFound when userID is not a member.
		LeaveGroup(ctx context.Context, groupID, userID string) error
	}

	Service interface {
		Create(ctx context.Context, userID string, ng NewGroup) (Group, error)
		Join(ctx context.Context, userID, code string) (Group, error)
		QueryForUser(ctx context.Context, userID string) ([]Group, error)
		// Get returns ErrNotFound unless userID is a member of the group.
		Get(ctx context.Context, userID, groupID string) (Group, error)
		Members(ctx context.Context, userID, groupID string) ([]Member, error)
		Membership(ctx context.Context, userID, groupID string) (Member, error)
		RemoveMember(ctx context.Context, adminID, groupID, userID string) error
		Leave(ctx context.Context, userID, groupID string) error
		RegenerateInviteCode(ctx context.Context, adminID, groupID string) (Group, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, userID string, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	for try := 0; try < maxInviteCodeTries; try++ {
		code, err := newInviteCode()
		if err != nil {
			return Group{}, errors.Wrap(err, "generating invite code")
		}
		g := Group{
			Name:       ng.Name,
			InviteCode: code,
			CreatedBy:  userID,
			CreatedAt:  now,
		}
		g, err = svc.repo.CreateGroup(ctx, g, Member{UserID: userID, Role: RoleAdmin, JoinedAt: now})
		if errors.Cause(err) == ErrInviteCodeTaken {
			continue
		}
		if err != nil {
			return Group{}, errors.Wrap(err, "creating group")
		}
		return g, nil
	}
	return Group{}, errors.Wrapf(ErrInviteCodeTaken, "creating group after %d tries", maxInviteCodeTries)
}

func (svc *service) Join(ctx context.Context, userID, code string) (Group, error) {
	g, err := svc.repo.GetGroupByInviteCode(ctx, CleanInviteCode(code))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Group{}, core.NewValidationError(ErrInvalidInviteCode, core.FieldError{Field: "invite_code", Error: ErrInvalidInviteCode.Error()})
		}
		return Group{}, errors.Wrap(err, "finding group by invite code")
	}

	err = svc.repo.AddMember(ctx, Member{GroupID: g.ID, UserID: userID, Role: RoleMember, JoinedAt: time.Now().UTC()})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyMember {
			return Group{}, core.NewValidationError(ErrAlreadyMember, core.FieldError{Field: "invite_code", Error: ErrAlreadyMember.Error()})
		}
		return Group{}, errors.Wrap(err, "adding member")
	}
	return svc.repo.GetGroup(ctx, g.ID)
}

func (svc *service) QueryForUser(ctx context.Context, userID string) ([]Group, error) {
	groups, err := svc.repo.QueryGroupsForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	return groups, nil
}

func (svc *service) Membership(ctx context.Context, userID, groupID string) (Member, error) {
	m, err := svc.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return Member{}, ErrNotFound
		}
		return Member{}, errors.Wrap(err, "getting membership")
	}
	return m, nil
}

func (svc *service) Get(ctx context.Context, userID, groupID string) (Group, error) {
	if _, err := svc.Membership(ctx, userID, groupID); err != nil {
		return Group{}, err
	}
	return svc.repo.GetGroup(ctx, groupID)
}

func (svc *service) Members(ctx context.Context, userID, groupID string) ([]Member, error) {
	if _, err := svc.Membership(ctx, userID, groupID); err != nil {
		return nil, err
	}
	members, err := svc.repo.QueryMembers(ctx, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return members, nil
}

func (svc *service) requireAdmin(ctx context.Context, userID, groupID string) error {
	m, err := svc.Membership(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !m.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

func (svc *service) RemoveMember(ctx context.Context, adminID, groupID, userID string) error {
	if err := svc.requireAdmin(ctx, adminID, groupID); err != nil {
		return err
	}
	if adminID == userID {
		return core.NewValidationError(ErrRemoveSelf, core.FieldError{Field: "user_id", Error: ErrRemoveSelf.Error()})
	}
	if _, err := svc.repo.GetMember(ctx, groupID, userID); err != nil {
		return err
	}
	return svc.repo.RemoveMember(ctx, groupID, userID)
}

// Leave removes userID from the group. The earliest-joined remaining member is promoted when the last admin
// leaves, and the group is deleted when nobody is left.
func (svc *service) Leave(ctx context.Context, userID, groupID string) error {
	if _, err := svc.Membership(ctx, userID, groupID); err != nil {
		return err
	}
	if err := svc.repo.LeaveGroup(ctx, groupID, userID); err != nil {
		switch errors.Cause(err) {
		case ErrMemberNotFound, ErrNotFound: // left concurrently
			return ErrNotFound
		}
		return errors.Wrap(err, "leaving group")
	}
	return nil
}

func (svc *service) RegenerateInviteCode(ctx context.Context, adminID, groupID string) (Group, error) {
	if err := svc.requireAdmin(ctx, adminID, groupID); err != nil {
		return Group{}, err
	}
	for try := 0; try < maxInviteCodeTries; try++ {
		code, err := newInviteCode()
		if err != nil {
			return Group{}, errors.Wrap(err, "generating invite code")
		}
		err = svc.repo.UpdateInviteCode(ctx, groupID, code)
		if errors.Cause(err) == ErrInviteCodeTaken {
			continue
		}
		if err != nil {
			return Group{}, errors.Wrap(err, "updating invite code")
		}
		return svc.repo.GetGroup(ctx, groupID)
	}
	return Group{}, errors.Wrapf(ErrInviteCodeTaken, "regenerating invite code after %d tries", maxInviteCodeTries)
}
