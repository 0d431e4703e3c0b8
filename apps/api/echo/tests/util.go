package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/schedule"
	"github.com/trezcool/elimu/core/user"
	cachesvc "github.com/trezcool/elimu/services/cache"
	emailsvc "github.com/trezcool/elimu/services/email"
	videosvc "github.com/trezcool/elimu/services/video"
	gormrepos "github.com/trezcool/elimu/storage/database/gorm"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
	"github.com/trezcool/elimu/tests"
)

type testApp struct {
	conf       *core.Config
	server     echoapi.Server
	usrRepo    user.Repository
	courseRepo course.Repository
	mailSvc    *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) testApp {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	gdb := testutil.PrepareDB(t)
	app := testApp{
		conf:       conf,
		usrRepo:    gormrepos.NewUserRepository(gdb),
		courseRepo: gormrepos.NewCourseRepository(gdb),
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
	}

	// set up services
	usrSvc := user.NewService(app.usrRepo, cachesvc.NewMemoryCache(), app.mailSvc, conf)
	courseSvc := course.NewService(gormrepos.NewTransactor(gdb), app.courseRepo, videosvc.NewDummyService())
	enrollmentSvc := enrollment.NewService(gormrepos.NewPurchaseRepository(gdb), courseSvc)
	progressSvc := progress.NewService(
		gormrepos.NewProgressRepository(gdb),
		sqlxrepos.NewReportRepository(testutil.ReportDB(t, gdb)),
		courseSvc,
		enrollmentSvc,
	)
	validate, translator := testutil.NewValidator()

	// set up server
	app.server = echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			CourseSvc:      courseSvc,
			EnrollmentSvc:  enrollmentSvc,
			ProgressSvc:    progressSvc,
			LearningSvc:    learning.NewService(courseSvc, enrollmentSvc, progressSvc),
			ScheduleSvc:    schedule.NewService(gormrepos.NewTransactor(gdb), gormrepos.NewScheduleRepository(gdb)),
		},
	)
	return app
}

// serve sends a request through the server. body is JSON encoded unless it is already a []byte.
func (app testApp) serve(t *testing.T, method, path string, cookie *http.Cookie, body ...interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if len(body) > 0 {
		switch b := body[0].(type) {
		case []byte:
			buf.Write(b)
		default:
			buf.Write(marshalObj(t, b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns a valid session cookie of usr.
func (app testApp) sessionCookie(t *testing.T, usr user.User) *http.Cookie {
	t.Helper()
	token, err := echoapi.GenerateToken(usr, []byte(app.conf.SecretKey), app.conf.Session.TTL)
	if err != nil {
		t.Fatalf("sessionCookie(): %v", err)
	}
	return &http.Cookie{Name: app.conf.Session.CookieName, Value: token}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode(%s): %v", rec.Body.String(), err)
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

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	cookie   *http.Cookie
	wantCode int
	wantData []byte // JSON
	wantText string // plain text errors
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	switch {
	case tt.wantText != "":
		if got := rec.Body.String(); got != tt.wantText {
			t.Errorf("failed! text = %q; wantText %q", got, tt.wantText)
		}
	case tt.wantData != nil:
		ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			var body []interface{}
			if tt.body != nil {
				body = append(body, tt.body)
			}
			rec := app.serve(t, method, tt.path, tt.cookie, body...)
			checkCodeAndData(t, tt, rec)
		})
	}
}
