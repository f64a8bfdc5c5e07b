package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/freetime/apps/api/echo"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
	testutil "github.com/trezcool/freetime/tests"
)

var errGroupNotFound = httpErr{Error: "group not found"}

func Test_groupApi_create(t *testing.T) {
	resetDB()
	usr := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "no token", body: []byte(`{"name": "Study"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no name", body: []byte(`{"name": "   "}`), token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"name": "this field is required"}`)},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/groups"
	}
	runHTTPTests(t, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", token, []byte(`{"name": " Study Buddies "}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var g group.Group
		unmarshal(t, rec, &g)
		assert.NotEmpty(t, g.ID)
		assert.Equal(t, "Study Buddies", g.Name)
		assert.Regexp(t, `^[A-Z0-9]{6}$`, g.InviteCode)
		assert.Equal(t, usr.ID, g.CreatedBy)
		assert.Equal(t, 1, g.MemberCount)

		m, err := repo.group.GetMember(context.Background(), g.ID, usr.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin(), "creator is admin")
	})
}

func Test_groupApi_query(t *testing.T) {
	resetDB()
	jane := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	john := testutil.CreateUser(t, repo.usr, "john@test.io", strongPwd, true)
	loner := testutil.CreateUser(t, repo.usr, "loner@test.io", strongPwd, true)

	first := testutil.CreateGroup(t, repo.group, "First", "AAAAAA", jane.ID)
	second := testutil.CreateGroup(t, repo.group, "Second", "BBBBBB", john.ID, jane.ID)

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no groups", token: getToken(t, loner), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "latest joined first", token: getToken(t, jane), wantCode: http.StatusOK, wantData: marchallList(t, second, first)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].path = "/v1/groups"
	}
	runHTTPTests(t, tests)
}

func Test_groupApi_join(t *testing.T) {
	resetDB()
	admin := testutil.CreateUser(t, repo.usr, "admin@test.io", strongPwd, true)
	jane := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	g := testutil.CreateGroup(t, repo.group, "Study", "ABC123", admin.ID)

	joined := g
	joined.MemberCount = 2

	token := getToken(t, jane)
	tests := []httpTest{
		{name: "no token", body: []byte(`{"invite_code": "ABC123"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name:     "malformed code",
			body:     []byte(`{"invite_code": "lol"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"invite_code": "invite_code must be 6 characters in length"}`),
		},
		{
			name:     "unknown code",
			body:     []byte(`{"invite_code": "ZZZ999"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"invite_code": "invalid invite code"}`),
		},
		{name: "success", body: []byte(`{"invite_code": " abc123 "}`), token: token, wantCode: http.StatusOK, wantData: marchallObj(t, joined)},
		{
			name:     "already a member",
			body:     []byte(`{"invite_code": "ABC123"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"invite_code": "you are already a member of this group"}`),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/groups/join"
	}
	runHTTPTests(t, tests)
}

func Test_groupApi_joinRateLimit(t *testing.T) {
	limitedConf := *conf
	limitedConf.RateLimit.JoinPerMinute = 1
	limitedConf.RateLimit.JoinBurst = 2

	limitedDB := inmemdb.Open()
	limitedApp, limitedRepo, err := newServer(&limitedConf, limitedDB, mediaDir)
	require.NoError(t, err)

	jane := testutil.CreateUser(t, limitedRepo.usr, "jane@test.io", strongPwd, true)
	john := testutil.CreateUser(t, limitedRepo.usr, "john@test.io", strongPwd, true)

	join := func(token string) int {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups/join", token, []byte(`{"invite_code": "ZZZ999"}`))
		limitedApp.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"error": "too many requests, try again later"}`, rec.Body.String())
		}
		return rec.Code
	}

	janeToken := getToken(t, jane)
	assert.Equal(t, http.StatusBadRequest, join(janeToken))
	assert.Equal(t, http.StatusBadRequest, join(janeToken))
	assert.Equal(t, http.StatusTooManyRequests, join(janeToken))

	// limits are per user
	assert.Equal(t, http.StatusBadRequest, join(getToken(t, john)))
}

func Test_groupApi_retrieve(t *testing.T) {
	resetDB()
	admin := testutil.CreateUser(t, repo.usr, "admin@test.io", strongPwd, true)
	jane := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	outsider := testutil.CreateUser(t, repo.usr, "out@test.io", strongPwd, true)
	g := testutil.CreateGroup(t, repo.group, "Study", "ABC123", admin.ID, jane.ID)

	janeProfile, err := repo.profile.UpsertProfile(context.Background(), profile.Profile{
		UserID:      jane.ID,
		DisplayName: "Jane",
		AvatarURL:   "http://localhost:8000/media/jane/avatar.png",
	})
	require.NoError(t, err)

	members, err := repo.group.QueryMembers(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	want := echoapi.GroupDetail{
		Group: g,
		Members: []echoapi.MemberDetail{
			{Member: members[0], Label: profile.ShortID(admin.ID)},
			{Member: members[1], DisplayName: janeProfile.DisplayName, AvatarURL: janeProfile.AvatarURL, Label: "Jane"},
		},
	}

	path := "/v1/groups/" + g.ID
	tests := []httpTest{
		{name: "no token", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "unknown group", path: "/v1/groups/lol", token: getToken(t, jane), wantCode: http.StatusNotFound, wantData: marchallObj(t, errGroupNotFound)},
		{name: "not a member", path: path, token: getToken(t, outsider), wantCode: http.StatusNotFound, wantData: marchallObj(t, errGroupNotFound)},
		{name: "member", path: path, token: getToken(t, jane), wantCode: http.StatusOK, wantData: marchallObj(t, want)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runHTTPTests(t, tests)
}

func Test_groupApi_inviteCodeAndRemoval(t *testing.T) {
	resetDB()
	admin := testutil.CreateUser(t, repo.usr, "admin@test.io", strongPwd, true)
	jane := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	john := testutil.CreateUser(t, repo.usr, "john@test.io", strongPwd, true)
	outsider := testutil.CreateUser(t, repo.usr, "out@test.io", strongPwd, true)
	g := testutil.CreateGroup(t, repo.group, "Study", "ABC123", admin.ID, jane.ID, john.ID)

	adminToken := getToken(t, admin)
	janeToken := getToken(t, jane)
	notAdmin := marchallObj(t, httpErr{Error: "only group admins can do this"})
	base := "/v1/groups/" + g.ID

	tests := []httpTest{
		{name: "invite code: not admin", method: http.MethodPost, path: base + "/invite-code", token: janeToken, wantCode: http.StatusForbidden, wantData: notAdmin},
		{name: "remove: not admin", method: http.MethodDelete, path: base + "/members/" + john.ID, token: janeToken, wantCode: http.StatusForbidden, wantData: notAdmin},
		{
			name:     "remove: self",
			method:   http.MethodDelete,
			path:     base + "/members/" + admin.ID,
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"user_id": "use leave to remove yourself from a group"}`),
		},
		{
			name:     "remove: not a member",
			method:   http.MethodDelete,
			path:     base + "/members/" + outsider.ID,
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "member not found"}),
		},
		{name: "remove", method: http.MethodDelete, path: base + "/members/" + john.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "removed member lost access", method: http.MethodGet, path: base, token: getToken(t, john), wantCode: http.StatusNotFound, wantData: marchallObj(t, errGroupNotFound)},
	}
	runHTTPTests(t, tests)

	t.Run("invite code: regenerate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, base+"/invite-code", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated group.Group
		unmarshal(t, rec, &updated)
		assert.Regexp(t, `^[A-Z0-9]{6}$`, updated.InviteCode)
		assert.NotEqual(t, g.InviteCode, updated.InviteCode)

		// the old code stops working
		req, rec = newAuthRequest(http.MethodPost, "/v1/groups/join", getToken(t, outsider), []byte(`{"invite_code": "ABC123"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_groupApi_leave(t *testing.T) {
	resetDB()
	admin := testutil.CreateUser(t, repo.usr, "admin@test.io", strongPwd, true)
	jane := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	john := testutil.CreateUser(t, repo.usr, "john@test.io", strongPwd, true)
	g := testutil.CreateGroup(t, repo.group, "Study", "ABC123", admin.ID, jane.ID, john.ID)
	ctx := context.Background()
	path := "/v1/groups/" + g.ID + "/leave"

	leave := func(t *testing.T, token string, wantCode int) {
		req, rec := newAuthRequest(http.MethodPost, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, wantCode, rec.Code, rec.Body.String())
	}

	t.Run("last admin leaves: earliest member is promoted", func(t *testing.T) {
		leave(t, getToken(t, admin), http.StatusNoContent)

		_, err := repo.group.GetMember(ctx, g.ID, admin.ID)
		assert.Equal(t, group.ErrMemberNotFound, err)

		m, err := repo.group.GetMember(ctx, g.ID, jane.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())

		m, err = repo.group.GetMember(ctx, g.ID, john.ID)
		require.NoError(t, err)
		assert.False(t, m.IsAdmin())
	})

	t.Run("not a member anymore", func(t *testing.T) {
		leave(t, getToken(t, admin), http.StatusNotFound)
	})

	t.Run("last member leaves: group is deleted", func(t *testing.T) {
		leave(t, getToken(t, john), http.StatusNoContent)
		leave(t, getToken(t, jane), http.StatusNoContent)

		_, err := repo.group.GetGroup(ctx, g.ID)
		assert.Equal(t, group.ErrNotFound, err)
	})
}
