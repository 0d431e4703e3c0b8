package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
)

type userApi struct {
	svc         user.Service
	progressSvc progress.Service
	sessions    *sessionManager
	validate    *validator.Validate
}

func registerUserAPI(g *echo.Group, sessions *sessionManager, opts *Options) {
	api := userApi{
		svc:         opts.UserSvc,
		progressSvc: opts.ProgressSvc,
		sessions:    sessions,
		validate:    opts.Validate,
	}

	// un-authed endpoints
	g.POST("/sign-up", api.signUp)
	g.POST("/sign-in", api.signIn)
	g.POST("/sign-out", api.signOut)

	// authed endpoints
	g.GET("/me", api.me, requireAuth)
	g.GET("/me/progress", api.progress, requireAuth)
	g.GET("/me/stream-token", api.streamToken, requireAuth)
	g.POST("/verify-email", api.requestEmailVerification, requireAuth)
	g.POST("/verify-email/confirm", api.confirmEmail, requireAuth)
}

// Handlers

func (api *userApi) signUp(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) signIn(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	if err = api.sessions.signIn(ctx, usr); err != nil {
		return errors.Wrap(err, "signing in")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) signOut(ctx echo.Context) error {
	api.sessions.signOut(ctx)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "signed out"})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) progress(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	agg, err := api.progressSvc.Aggregate(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "aggregating progress")
	}
	return ctx.JSON(http.StatusOK, agg)
}

func (api *userApi) streamToken(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	token, err := api.sessions.streamToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating stream token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) requestEmailVerification(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RequestEmailVerification(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "requesting email verification")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "A verification code has been sent to " + usr.Email})
}

func (api *userApi) confirmEmail(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data user.ConfirmEmail
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmEmail")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.ConfirmEmail(ctx.Request().Context(), usr, data.Code)
	if err != nil {
		return errors.Wrap(err, "confirming email")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)
