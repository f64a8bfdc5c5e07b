package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/freetime/core/schedule"
	testutil "github.com/trezcool/freetime/tests"
)

func Test_scheduleApi_create(t *testing.T) {
	resetDB()
	usr := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "no token", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name:     "invalid fields",
			body:     []byte(`{"class_name": "  ", "day_of_week": 7, "start_time": "25:00", "end_time": "10:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"class_name": "this field is required",
				"day_of_week": "day_of_week must be 6 or less",
				"start_time": "start_time must be a time in HH:MM format"
			}`),
		},
		{
			name:     "missing day",
			body:     []byte(`{"class_name": "Maths", "start_time": "08:00", "end_time": "10:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"day_of_week": "this field is required"}`),
		},
		{
			name:     "ends before it starts",
			body:     []byte(`{"class_name": "Maths", "day_of_week": 0, "start_time": "10:00", "end_time": "08:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time": "end time must be after start time"}`),
		},
		{
			name:     "zero length",
			body:     []byte(`{"class_name": "Maths", "day_of_week": 0, "start_time": "10:00", "end_time": "10:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time": "end time must be after start time"}`),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/schedules"
	}
	runHTTPTests(t, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/schedules", token,
			[]byte(`{"class_name": " Maths ", "day_of_week": 0, "start_time": "08:00", "end_time": "09:30"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var s schedule.Schedule
		unmarshal(t, rec, &s)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, usr.ID, s.UserID)
		assert.Equal(t, "Maths", s.ClassName)
		assert.Equal(t, 0, s.DayOfWeek)
		assert.Equal(t, "08:00", s.StartTime)
		assert.Equal(t, "09:30", s.EndTime)
	})
}

func Test_scheduleApi_query(t *testing.T) {
	resetDB()
	usr := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	other := testutil.CreateUser(t, repo.usr, "john@test.io", strongPwd, true)
	noClass := testutil.CreateUser(t, repo.usr, "free@test.io", strongPwd, true)

	fri := testutil.CreateSchedule(t, repo.schedule, usr.ID, "Physics", 4, "08:00", "10:00")
	monLate := testutil.CreateSchedule(t, repo.schedule, usr.ID, "Biology", 0, "14:00", "15:00")
	monEarly := testutil.CreateSchedule(t, repo.schedule, usr.ID, "Maths", 0, "08:00", "09:00")
	testutil.CreateSchedule(t, repo.schedule, other.ID, "History", 0, "08:00", "09:00")

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no schedules", token: getToken(t, noClass), wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name:     "own schedules by day and start",
			token:    getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallList(t, monEarly, monLate, fri),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].path = "/v1/schedules"
	}
	runHTTPTests(t, tests)
}

func Test_scheduleApi_detail(t *testing.T) {
	resetDB()
	usr := testutil.CreateUser(t, repo.usr, "jane@test.io", strongPwd, true)
	other := testutil.CreateUser(t, repo.usr, "john@test.io", strongPwd, true)
	s := testutil.CreateSchedule(t, repo.schedule, usr.ID, "Maths", 0, "08:00", "09:00")

	token := getToken(t, usr)
	path := "/v1/schedules/" + s.ID
	notFound := marchallObj(t, httpErr{Error: "schedule not found"})

	updated := s
	updated.ClassName = "Algebra"
	updated.EndTime = "09:30"

	tests := []httpTest{
		{name: "retrieve: no token", method: http.MethodGet, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "retrieve: unknown", method: http.MethodGet, path: "/v1/schedules/lol", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve: not owner", method: http.MethodGet, path: path, token: getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve", method: http.MethodGet, path: path, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, s)},
		{
			name:     "update: not owner",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"class_name": "Algebra"}`),
			token:    getToken(t, other),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "update: ends before it starts",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"end_time": "07:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time": "end time must be after start time"}`),
		},
		{
			name:     "update: omitted fields are kept",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"class_name": "Algebra", "end_time": "09:30"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, updated),
		},
		{name: "delete: not owner", method: http.MethodDelete, path: path, token: getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "delete", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodGet, path: path, token: token, wantCode: http.StatusNotFound, wantData: notFound},
	}
	runHTTPTests(t, tests)
}
