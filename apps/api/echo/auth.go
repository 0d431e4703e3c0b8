package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const contextUserKey = "user"

var errNoStreamSecret = errors.New("stream secret is not configured")

// Claims represents the authorization claims of a session token.
type Claims struct {
	jwt.StandardClaims
	UserID string `json:"userId"`
}

// StreamClaims are the claims of the token handed to the chat/video stream service.
type StreamClaims struct {
	jwt.StandardClaims
	UserID string `json:"user_id"`
}

// sessionManager issues the session cookie and resolves the user it belongs to.
type sessionManager struct {
	key          []byte
	cookieName   string
	ttl          time.Duration
	secure       bool
	streamSecret []byte
	streamTTL    time.Duration
	svc          user.Service
	logger       core.Logger
}

func newSessionManager(conf *core.Config, svc user.Service, logger core.Logger) *sessionManager {
	return &sessionManager{
		key:          []byte(conf.SecretKey),
		cookieName:   conf.Session.CookieName,
		ttl:          conf.Session.TTL,
		secure:       !conf.Debug,
		streamSecret: []byte(conf.Stream.Secret),
		streamTTL:    conf.Stream.TTL,
		svc:          svc,
		logger:       logger,
	}
}

// GenerateToken generates a signed session token for usr.
func GenerateToken(usr user.User, key []byte, ttl time.Duration) (string, error) {
	now := core.NowFunc()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		UserID: usr.ID,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (sm *sessionManager) parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sm.key, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if claims.UserID == "" {
		return Claims{}, errors.New("token has no user id")
	}
	return claims, nil
}

// signIn sets the session cookie.
func (sm *sessionManager) signIn(ctx echo.Context, usr user.User) error {
	token, err := GenerateToken(usr, sm.key, sm.ttl)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sm.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
	ctx.Set(contextUserKey, usr)
	return nil
}

// signOut expires the session cookie.
func (sm *sessionManager) signOut(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// middleware resolves the user of the session cookie, if any.
// Invalid tokens and unknown users leave the request anonymous.
func (sm *sessionManager) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(sm.cookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}

		claims, err := sm.parse(cookie.Value)
		if err != nil {
			sm.logger.Debug(fmt.Sprintf("session token rejected: %v", err))
			return next(ctx)
		}

		usr, err := sm.svc.GetByID(ctx.Request().Context(), claims.UserID)
		switch errors.Cause(err) {
		case nil:
			ctx.Set(contextUserKey, usr)
		case user.ErrNotFound, core.ErrNotFound:
			sm.logger.Debug("session user not found", map[string]interface{}{"user_id": claims.UserID})
		default:
			return errors.Wrap(err, "finding session user")
		}
		return next(ctx)
	}
}

// streamToken signs a short-lived token for the stream service.
func (sm *sessionManager) streamToken(usr user.User) (string, error) {
	if len(sm.streamSecret) == 0 {
		return "", errNoStreamSecret
	}
	claims := &StreamClaims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: core.NowFunc().Add(sm.streamTTL).Unix()},
		UserID:         usr.ID,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.streamSecret)
	if err != nil {
		return "", errors.Wrap(err, "signing stream token")
	}
	return ss, nil
}

func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

// mustContextUser is for handlers behind requireAuth.
func mustContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := getContextUser(ctx); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
