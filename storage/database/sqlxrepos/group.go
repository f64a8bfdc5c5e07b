package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core/group"
)

const (
	groupSelect = `
		SELECT g.id, g.name, g.invite_code, g.created_by, g.created_at,
			(SELECT COUNT(*) FROM group_member c WHERE c.group_id = g.id) AS member_count
		FROM "group" g`
	memberColumns = `group_id, user_id, role, joined_at`
)

type groupRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	InviteCode  string    `db:"invite_code"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	MemberCount int       `db:"member_count"`
}

func (r groupRow) toGroup() group.Group {
	return group.Group(r)
}

type memberRow struct {
	GroupID  string    `db:"group_id"`
	UserID   string    `db:"user_id"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

func (r memberRow) toMember() group.Member {
	return group.Member(r)
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group, admin group.Member) (group.Group, error) {
	g.ID = uuid.New().String()
	g.CreatedAt = g.CreatedAt.UTC()
	admin.GroupID = g.ID

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO "group" (id, name, invite_code, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5)`, g.ID, g.Name, g.InviteCode, g.CreatedBy, g.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return group.ErrInviteCodeTaken
			}
			return errors.Wrap(err, "inserting group")
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO group_member (`+memberColumns+`) VALUES ($1, $2, $3, $4)`,
			admin.GroupID, admin.UserID, admin.Role, admin.JoinedAt.UTC())
		return errors.Wrap(err, "inserting group admin")
	})
	if err != nil {
		return group.Group{}, err
	}
	g.MemberCount = 1
	return g, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, id string) (group.Group, error) {
	var row groupRow
	if err := repo.db.GetContext(ctx, &row, groupSelect+` WHERE g.id = $1`, id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "selecting group")
	}
	return row.toGroup(), nil
}

func (repo *groupRepository) GetGroupByInviteCode(ctx context.Context, code string) (group.Group, error) {
	var row groupRow
	if err := repo.db.GetContext(ctx, &row, groupSelect+` WHERE g.invite_code = $1`, code); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "selecting group by invite code")
	}
	return row.toGroup(), nil
}

func (repo *groupRepository) QueryGroupsForUser(ctx context.Context, userID string) ([]group.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, groupSelect+`
		JOIN group_member m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at DESC, g.id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.toGroup())
	}
	return groups, nil
}

func (repo *groupRepository) UpdateInviteCode(ctx context.Context, groupID, code string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE "group" SET invite_code = $1 WHERE id = $2`, code, groupID)
	if err != nil {
		if isUniqueViolation(err) {
			return group.ErrInviteCodeTaken
		}
		return errors.Wrap(err, "updating invite code")
	}
	return checkAffected(res, group.ErrNotFound)
}

func (repo *groupRepository) AddMember(ctx context.Context, m group.Member) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO group_member (`+memberColumns+`)
		VALUES (:group_id, :user_id, :role, :joined_at)`, memberRow{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return group.ErrAlreadyMember
		}
		return errors.Wrap(err, "inserting member")
	}
	return nil
}

func (repo *groupRepository) GetMember(ctx context.Context, groupID, userID string) (group.Member, error) {
	var row memberRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+memberColumns+` FROM group_member
		WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return group.Member{}, trapNoRowsErr(err, group.ErrMemberNotFound, "selecting member")
	}
	return row.toMember(), nil
}

func (repo *groupRepository) QueryMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	var rows []memberRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+memberColumns+` FROM group_member
		WHERE group_id = $1
		ORDER BY joined_at, user_id`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting members")
	}
	members := make([]group.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toMember())
	}
	return members, nil
}

// RemoveMember takes the group lock so it cannot interleave with LeaveGroup.
func (repo *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		return deleteMember(ctx, tx, groupID, userID)
	})
}

func (repo *groupRepository) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		if err := deleteMember(ctx, tx, groupID, userID); err != nil {
			return err
		}

		var rows []memberRow
		err := tx.SelectContext(ctx, &rows, `
			SELECT `+memberColumns+` FROM group_member
			WHERE group_id = $1
			ORDER BY joined_at, user_id`, groupID)
		if err != nil {
			return errors.Wrap(err, "selecting remaining members")
		}
		if len(rows) == 0 {
			// members, events and responses go with ON DELETE CASCADE
			_, err = tx.ExecContext(ctx, `DELETE FROM "group" WHERE id = $1`, groupID)
			return errors.Wrap(err, "deleting empty group")
		}
		for _, r := range rows {
			if r.Role == group.RoleAdmin {
				return nil
			}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE group_member SET role = $1
			WHERE group_id = $2 AND user_id = $3`, group.RoleAdmin, groupID, rows[0].UserID)
		return errors.Wrap(err, "promoting member")
	})
}

// lockGroup serializes membership changes of a group until tx ends.
func lockGroup(ctx context.Context, tx *sqlx.Tx, groupID string) error {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM "group" WHERE id = $1 FOR UPDATE`, groupID)
	return trapNoRowsErr(err, group.ErrNotFound, "locking group")
}

func deleteMember(ctx context.Context, tx *sqlx.Tx, groupID, userID string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return checkAffected(res, group.ErrMemberNotFound)
}
