package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/freetime/apps/api/echo"
	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/schedule"
	"github.com/trezcool/freetime/core/user"
	emailsvc "github.com/trezcool/freetime/services/email"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
	"github.com/trezcool/freetime/storage/objectstore"
	testutil "github.com/trezcool/freetime/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
)

type repos struct {
	usr      user.Repository
	profile  profile.Repository
	schedule schedule.Repository
	group    group.Repository
	event    event.Repository
}

// newServer wires the API on db, the console mail mock and a local object store rooted at mediaDir.
func newServer(conf *core.Config, db *inmemdb.DB, mediaDir string) (*echoapi.Server, repos, error) {
	logger := testutil.NewLogger(conf)

	r := repos{
		usr:      inmemdb.NewUserRepository(db),
		profile:  inmemdb.NewProfileRepository(db),
		schedule: inmemdb.NewScheduleRepository(db),
		group:    inmemdb.NewGroupRepository(db),
		event:    inmemdb.NewEventRepository(db),
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	store, err := objectstore.NewLocalStore(mediaDir, conf.ObjectStore.PublicBaseURL)
	if err != nil {
		return nil, r, err
	}
	theme, err := calendar.DefaultTheme()
	if err != nil {
		return nil, r, err
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(r.usr, mailSvc, conf)
	profileSvc := profile.NewService(r.profile, store)
	scheduleSvc := schedule.NewService(r.schedule)
	groupSvc := group.NewService(r.group)
	eventSvc := event.NewService(r.event, groupSvc, usrSvc, profileSvc, mailSvc, logger)
	calendarSvc := calendar.NewService(groupSvc, scheduleSvc, profileSvc, testutil.NewMemoryCache(), conf, logger)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		ProfileSvc:     profileSvc,
		ScheduleSvc:    scheduleSvc,
		GroupSvc:       groupSvc,
		EventSvc:       eventSvc,
		CalendarSvc:    calendarSvc,
		Theme:          theme,
		MediaDir:       mediaDir,
		DisableReqLogs: true,
	})
	return server, r, nil
}

func resetDB() {
	db.Reset()
	emailsvc.ResetSentMessages()
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newUploadRequest(t *testing.T, path, token, field, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("newUploadRequest(): %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("newUploadRequest(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newUploadRequest(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, usr user.User, origIat ...int64) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr, origIat...))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
