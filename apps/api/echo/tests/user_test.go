package tests

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func Test_home(t *testing.T) {
	app := setup(t)
	rec := app.serve(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Elimu API!", rec.Body.String())
}

func Test_userApi_signUpAndSignIn(t *testing.T) {
	app := setup(t)
	creds := map[string]string{"email": "ada@test.cd", "password": "Secur3Pass!"}

	rec := app.serve(t, http.MethodPost, "/v1/sign-up", nil, map[string]string{
		"name": "Ada", "email": " ADA@test.cd ", "password": "Secur3Pass!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created user.User
	decode(t, rec, &created)
	assert.Equal(t, "ada@test.cd", created.Email)
	assert.Equal(t, user.RoleUser, created.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.serve(t, http.MethodPost, "/v1/sign-in", nil, creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := findCookie(rec, app.conf.Session.CookieName)
	require.NotNil(t, cookie, "sign-in sets the session cookie")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int(app.conf.Session.TTL.Seconds()), cookie.MaxAge)

	rec = app.serve(t, http.MethodGet, "/v1/me", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decode(t, rec, &me)
	assert.Equal(t, created.ID, me.ID)

	rec = app.serve(t, http.MethodPost, "/v1/sign-out", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	expired := findCookie(rec, app.conf.Session.CookieName)
	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
	assert.Less(t, expired.MaxAge, 0)
}

func Test_userApi_signUp(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.cd", "Secur3Pass!", "")

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/sign-up", body: map[string]string{},
			wantCode: http.StatusBadRequest,
			wantText: "email: this field is required\nname: this field is required\npassword: this field is required",
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/sign-up",
			body:     map[string]string{"name": "Bob", "email": "bob@test.cd", "password": "short"},
			wantCode: http.StatusBadRequest, wantText: "password: password must contain at least 8 characters",
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/sign-up",
			body:     map[string]string{"name": "Ada", "email": "ada@test.cd", "password": "Secur3Pass!"},
			wantCode: http.StatusBadRequest, wantText: "email: " + user.ErrEmailExists.Error(),
		},
	})
}

func Test_userApi_signIn(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.cd", "Secur3Pass!", "")

	wrongPwd := app.serve(t, http.MethodPost, "/v1/sign-in", nil, map[string]string{"email": "ada@test.cd", "password": "nope"})
	unknown := app.serve(t, http.MethodPost, "/v1/sign-in", nil, map[string]string{"email": "bob@test.cd", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPwd.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPwd.Body.String(), unknown.Body.String(), "failures must not reveal which emails exist")
	assert.Nil(t, findCookie(wrongPwd, app.conf.Session.CookieName))
}

func Test_sessionMiddleware(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.cd", "Secur3Pass!", "")

	forged, err := echoapi.GenerateToken(usr, []byte("not-the-secret"), time.Hour)
	require.NoError(t, err)
	expired, err := echoapi.GenerateToken(usr, []byte(app.conf.SecretKey), -time.Hour)
	require.NoError(t, err)
	ghost, err := echoapi.GenerateToken(user.User{ID: "ghost"}, []byte(app.conf.SecretKey), time.Hour)
	require.NoError(t, err)
	cookie := func(val string) *http.Cookie { return &http.Cookie{Name: app.conf.Session.CookieName, Value: val} }

	runHTTPTests(t, app, []httpTest{
		{name: "no cookie", path: "/v1/me", wantCode: http.StatusUnauthorized, wantText: "user not authenticated"},
		{name: "garbage", path: "/v1/me", cookie: cookie("lol"), wantCode: http.StatusUnauthorized, wantText: "user not authenticated"},
		{name: "forged", path: "/v1/me", cookie: cookie(forged), wantCode: http.StatusUnauthorized, wantText: "user not authenticated"},
		{name: "expired", path: "/v1/me", cookie: cookie(expired), wantCode: http.StatusUnauthorized, wantText: "user not authenticated"},
		{name: "unknown user", path: "/v1/me", cookie: cookie(ghost), wantCode: http.StatusUnauthorized, wantText: "user not authenticated"},
		{name: "valid", path: "/v1/me", cookie: app.sessionCookie(t, usr), wantCode: http.StatusOK},
		{name: "public route ignores a bad cookie", path: "/v1/courses", cookie: cookie("lol"), wantCode: http.StatusOK, wantData: []byte("[]")},
	})
}

func Test_userApi_streamToken(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.cd", "Secur3Pass!", "")

	rec := app.serve(t, http.MethodGet, "/v1/me/stream-token", app.sessionCookie(t, usr))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res echoapi.TokenResponse
	decode(t, rec, &res)

	var claims echoapi.StreamClaims
	_, err := jwt.ParseWithClaims(res.Token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(app.conf.Stream.Secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, claims.UserID)
}

func Test_userApi_verifyEmail(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.cd", "Secur3Pass!", "")
	cookie := app.sessionCookie(t, usr)

	rec := app.serve(t, http.MethodPost, "/v1/verify-email", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	code := regexp.MustCompile(`\b\d{6}\b`).FindString(sent[0].TextContent)
	require.NotEmpty(t, code)

	rec = app.serve(t, http.MethodPost, "/v1/verify-email/confirm", cookie, map[string]string{"code": "12"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.serve(t, http.MethodPost, "/v1/verify-email/confirm", cookie, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified user.User
	decode(t, rec, &verified)
	assert.NotNil(t, verified.EmailVerifiedAt)

	rec = app.serve(t, http.MethodPost, "/v1/verify-email", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, user.ErrAlreadyVerified.Error(), rec.Body.String())
}
