package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/learning"
	"github.com/trezcool/elimu/core/progress"
)

type learningApi struct {
	svc           learning.Service
	enrollmentSvc enrollment.Service
	progressSvc   progress.Service
	validate      *validator.Validate
}

func registerLearningAPI(g *echo.Group, opts *Options) {
	api := learningApi{
		svc:           opts.LearningSvc,
		enrollmentSvc: opts.EnrollmentSvc,
		progressSvc:   opts.ProgressSvc,
		validate:      opts.Validate,
	}

	g.GET("/learning", api.dashboard, requireAuth)
	g.POST("/courses/:id/enroll", api.enroll, requireAuth)
	g.GET("/courses/:id/sections/:sid", api.sectionPage, requireAuth)
	g.PUT("/courses/:id/sections/:sid/progress", api.markSection, requireAuth)

	g.GET("/instructor/performance", api.performance, requireAuth, instructorMiddleware)
}

func (api *learningApi) enroll(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	res, err := api.enrollmentSvc.Enroll(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	code := http.StatusCreated
	if res.AlreadyEnrolled {
		code = http.StatusOK
	}
	return ctx.JSON(code, res)
}

func (api *learningApi) sectionPage(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	page, err := api.svc.SectionPage(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"))
	if err != nil {
		return errors.Wrap(err, "getting section page")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *learningApi) markSection(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data progress.MarkSection
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkSection")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	upd, err := api.svc.MarkSection(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), *data.IsCompleted)
	if err != nil {
		return errors.Wrap(err, "marking section")
	}
	return ctx.JSON(http.StatusOK, upd)
}

func (api *learningApi) dashboard(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Dashboard(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	if entries == nil {
		entries = []learning.DashboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *learningApi) performance(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	perf, err := api.progressSvc.InstructorPerformance(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting instructor performance")
	}
	return ctx.JSON(http.StatusOK, perf)
}
