package group_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/group"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
	testutil "github.com/trezcool/freetime/tests"
)

func setup() (group.Service, group.Repository) {
	repo := inmemdb.NewGroupRepository(inmemdb.Open())
	return group.NewService(repo), repo
}

// codes returns a generator yielding the given codes in order.
func codes(values ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := values[i%len(values)]
		i++
		return code, nil
	}
}

func fieldErrors(t *testing.T, err error) []core.FieldError {
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
	return verr.Fields
}

func TestService_Create(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	t.Run("creator is the admin", func(t *testing.T) {
		g, err := svc.Create(ctx, "jane", group.NewGroup{Name: "Study"})
		require.NoError(t, err)
		assert.NotEmpty(t, g.ID)
		assert.Len(t, g.InviteCode, 6)
		assert.Equal(t, "jane", g.CreatedBy)
		assert.Equal(t, 1, g.MemberCount)

		m, err := svc.Membership(ctx, "jane", g.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())
	})

	t.Run("retries on invite code collision", func(t *testing.T) {
		testutil.CreateGroup(t, repo, "Taken", "TAKEN1", "john")
		restore := group.SetInviteCodeGenerator(codes("TAKEN1", "TAKEN1", "FRESH1"))
		defer restore()

		g, err := svc.Create(ctx, "jane", group.NewGroup{Name: "Study"})
		require.NoError(t, err)
		assert.Equal(t, "FRESH1", g.InviteCode)
	})

	t.Run("gives up after too many collisions", func(t *testing.T) {
		restore := group.SetInviteCodeGenerator(codes("TAKEN1"))
		defer restore()

		_, err := svc.Create(ctx, "jane", group.NewGroup{Name: "Study"})
		assert.Equal(t, group.ErrInviteCodeTaken, errors.Cause(err))
	})
}

func TestService_Join(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, repo, "Study", "ABC123", "jane")

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Join(ctx, "john", "ZZZ999")
		assert.Equal(t, []core.FieldError{{Field: "invite_code", Error: "invalid invite code"}}, fieldErrors(t, err))
	})

	t.Run("success", func(t *testing.T) {
		joined, err := svc.Join(ctx, "john", " abc123 ")
		require.NoError(t, err)
		assert.Equal(t, g.ID, joined.ID)
		assert.Equal(t, 2, joined.MemberCount)

		m, err := svc.Membership(ctx, "john", g.ID)
		require.NoError(t, err)
		assert.Equal(t, group.RoleMember, m.Role)
	})

	t.Run("already a member", func(t *testing.T) {
		_, err := svc.Join(ctx, "john", "ABC123")
		assert.Equal(t, []core.FieldError{{Field: "invite_code", Error: "you are already a member of this group"}}, fieldErrors(t, err))
	})
}

func TestService_membership(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, repo, "Study", "ABC123", "jane", "john", "mary")

	_, err := svc.Get(ctx, "outsider", g.ID)
	assert.Equal(t, group.ErrNotFound, err)
	_, err = svc.Members(ctx, "outsider", g.ID)
	assert.Equal(t, group.ErrNotFound, err)
	_, err = svc.Get(ctx, "jane", "lol")
	assert.Equal(t, group.ErrNotFound, err)

	members, err := svc.Members(ctx, "mary", g.ID)
	require.NoError(t, err)
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	assert.Equal(t, []string{"jane", "john", "mary"}, ids, "earliest joined first")
}

func TestService_RemoveMember(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, repo, "Study", "ABC123", "jane", "john", "mary")

	tests := []struct {
		name    string
		adminID string
		userID  string
		wantErr error
	}{
		{name: "not a member", adminID: "outsider", userID: "john", wantErr: group.ErrNotFound},
		{name: "not an admin", adminID: "mary", userID: "john", wantErr: group.ErrNotAdmin},
		{name: "unknown member", adminID: "jane", userID: "lol", wantErr: group.ErrMemberNotFound},
		{name: "success", adminID: "jane", userID: "john"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RemoveMember(ctx, tt.adminID, g.ID, tt.userID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			_, err = svc.Membership(ctx, tt.userID, g.ID)
			assert.Equal(t, group.ErrNotFound, err)
		})
	}

	t.Run("self", func(t *testing.T) {
		err := svc.RemoveMember(ctx, "jane", g.ID, "jane")
		assert.Equal(t, []core.FieldError{{Field: "user_id", Error: "use leave to remove yourself from a group"}}, fieldErrors(t, err))
	})
}

func TestService_Leave(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	t.Run("member leaves", func(t *testing.T) {
		g := testutil.CreateGroup(t, repo, "Study", "AAA111", "jane", "john", "mary")
		require.NoError(t, svc.Leave(ctx, "mary", g.ID))

		m, err := svc.Membership(ctx, "jane", g.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())
		m, err = svc.Membership(ctx, "john", g.ID)
		require.NoError(t, err)
		assert.False(t, m.IsAdmin())
	})

	t.Run("last admin leaves: earliest member is promoted", func(t *testing.T) {
		g := testutil.CreateGroup(t, repo, "Study", "BBB222", "jane", "john", "mary")
		require.NoError(t, svc.Leave(ctx, "jane", g.ID))

		m, err := svc.Membership(ctx, "john", g.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())
		m, err = svc.Membership(ctx, "mary", g.ID)
		require.NoError(t, err)
		assert.False(t, m.IsAdmin())
	})

	t.Run("last member leaves: group is deleted", func(t *testing.T) {
		g := testutil.CreateGroup(t, repo, "Study", "CCC333", "jane")
		require.NoError(t, svc.Leave(ctx, "jane", g.ID))

		_, err := repo.GetGroup(ctx, g.ID)
		assert.Equal(t, group.ErrNotFound, errors.Cause(err))
	})

	t.Run("not a member", func(t *testing.T) {
		g := testutil.CreateGroup(t, repo, "Study", "DDD444", "jane")
		assert.Equal(t, group.ErrNotFound, svc.Leave(ctx, "john", g.ID))
	})

	t.Run("last members leave concurrently: group is deleted", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			g := testutil.CreateGroup(t, repo, "Study", fmt.Sprintf("E%05d", i), "jane", "john")

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for j, userID := range []string{"jane", "john"} {
				wg.Add(1)
				go func(j int, userID string) {
					defer wg.Done()
					errs[j] = svc.Leave(ctx, userID, g.ID)
				}(j, userID)
			}
			wg.Wait()

			require.NoError(t, errs[0])
			require.NoError(t, errs[1])
			_, err := repo.GetGroup(ctx, g.ID)
			require.Equal(t, group.ErrNotFound, errors.Cause(err), "run %d", i)
			members, err := repo.QueryMembers(ctx, g.ID)
			require.NoError(t, err)
			require.Empty(t, members)
		}
	})
}

func TestService_RegenerateInviteCode(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	g := testutil.CreateGroup(t, repo, "Study", "ABC123", "jane", "john")
	testutil.CreateGroup(t, repo, "Other", "TAKEN1", "mary")

	_, err := svc.RegenerateInviteCode(ctx, "john", g.ID)
	assert.Equal(t, group.ErrNotAdmin, err)

	restore := group.SetInviteCodeGenerator(codes("TAKEN1", "NEW123"))
	defer restore()

	updated, err := svc.RegenerateInviteCode(ctx, "jane", g.ID)
	require.NoError(t, err)
	assert.Equal(t, "NEW123", updated.InviteCode)

	_, err = svc.Join(ctx, "mary", "ABC123")
	fieldErrors(t, err)
	_, err = svc.Join(ctx, "mary", "NEW123")
	assert.NoError(t, err)
}
