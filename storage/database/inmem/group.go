package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/freetime/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

// withCount must be called with the lock held.
func (repo *groupRepository) withCount(g group.Group) group.Group {
	g.MemberCount = 0
	for key := range repo.db.members {
		if key.groupID == g.ID {
			g.MemberCount++
		}
	}
	return g
}

func (repo *groupRepository) codeTaken(code string) bool {
	for _, g := range repo.db.groups {
		if g.InviteCode == code {
			return true
		}
	}
	return false
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group, admin group.Member) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.codeTaken(g.InviteCode) {
		return group.Group{}, group.ErrInviteCodeTaken
	}
	g.ID = uuid.New().String()
	repo.db.groups[g.ID] = g

	admin.GroupID = g.ID
	repo.db.members[memberKey{g.ID, admin.UserID}] = admin
	return repo.withCount(g), nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return repo.withCount(g), nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) GetGroupByInviteCode(_ context.Context, code string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, g := range repo.db.groups {
		if g.InviteCode == code {
			return repo.withCount(g), nil
		}
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) QueryGroupsForUser(_ context.Context, userID string) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var memberships []group.Member
	for key, m := range repo.db.members {
		if key.userID == userID {
			memberships = append(memberships, m)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		if !memberships[i].JoinedAt.Equal(memberships[j].JoinedAt) {
			return memberships[i].JoinedAt.After(memberships[j].JoinedAt)
		}
		return memberships[i].GroupID < memberships[j].GroupID
	})

	groups := make([]group.Group, 0, len(memberships))
	for _, m := range memberships {
		if g, ok := repo.db.groups[m.GroupID]; ok {
			groups = append(groups, repo.withCount(g))
		}
	}
	return groups, nil
}

func (repo *groupRepository) UpdateInviteCode(_ context.Context, groupID, code string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	if repo.codeTaken(code) {
		return group.ErrInviteCodeTaken
	}
	g.InviteCode = code
	repo.db.groups[groupID] = g
	return nil
}

// deleteGroup removes the group along with its members, events and responses. The lock must be held.
func (repo *groupRepository) deleteGroup(id string) {
	delete(repo.db.groups, id)
	for key := range repo.db.members {
		if key.groupID == id {
			delete(repo.db.members, key)
		}
	}
	for eventID, e := range repo.db.events {
		if e.GroupID != id {
			continue
		}
		delete(repo.db.events, eventID)
		for key := range repo.db.responses {
			if key.eventID == eventID {
				delete(repo.db.responses, key)
			}
		}
	}
}

func (repo *groupRepository) AddMember(_ context.Context, m group.Member) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.groups[m.GroupID]; !ok {
		return group.ErrNotFound
	}
	key := memberKey{m.GroupID, m.UserID}
	if _, ok := repo.db.members[key]; ok {
		return group.ErrAlreadyMember
	}
	repo.db.members[key] = m
	return nil
}

func (repo *groupRepository) GetMember(_ context.Context, groupID, userID string) (group.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.members[memberKey{groupID, userID}]; ok {
		return m, nil
	}
	return group.Member{}, group.ErrMemberNotFound
}

func (repo *groupRepository) QueryMembers(_ context.Context, groupID string) ([]group.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make([]group.Member, 0)
	for key, m := range repo.db.members {
		if key.groupID == groupID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (repo *groupRepository) RemoveMember(_ context.Context, groupID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := memberKey{groupID, userID}
	if _, ok := repo.db.members[key]; !ok {
		return group.ErrMemberNotFound
	}
	delete(repo.db.members, key)
	return nil
}

func (repo *groupRepository) LeaveGroup(_ context.Context, groupID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := memberKey{groupID, userID}
	if _, ok := repo.db.members[key]; !ok {
		return group.ErrMemberNotFound
	}
	delete(repo.db.members, key)

	var next *group.Member
	for k, m := range repo.db.members {
		if k.groupID != groupID {
			continue
		}
		if m.IsAdmin() {
			return nil
		}
		if next == nil || m.JoinedAt.Before(next.JoinedAt) || (m.JoinedAt.Equal(next.JoinedAt) && m.UserID < next.UserID) {
			m := m
			next = &m
		}
	}
	if next == nil {
		repo.deleteGroup(groupID)
		return nil
	}
	next.Role = group.RoleAdmin
	repo.db.members[memberKey{groupID, next.UserID}] = *next
	return nil
}
