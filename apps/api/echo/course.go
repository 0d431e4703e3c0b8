package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/learning"
)

type courseApi struct {
	svc         course.Service
	learningSvc learning.Service
	validate    *validator.Validate
}

func registerCourseAPI(g *echo.Group, opts *Options) {
	api := courseApi{
		svc:         opts.CourseSvc,
		learningSvc: opts.LearningSvc,
		validate:    opts.Validate,
	}

	// catalog
	g.GET("/courses", api.query)
	g.GET("/courses/:id", api.overview, requireAuth)

	// authoring
	instr := []echo.MiddlewareFunc{requireAuth, instructorMiddleware}
	g.GET("/instructor/courses", api.queryOwned, instr...)
	g.GET("/instructor/courses/:id", api.retrieveOwned, instr...)
	g.POST("/courses", api.create, instr...)
	g.PATCH("/courses/:id", api.update, instr...)
	g.DELETE("/courses/:id", api.destroy, instr...)
	g.POST("/courses/:id/publish", api.publish, instr...)

	g.POST("/courses/:id/sections", api.addSection, instr...)
	g.PUT("/courses/:id/sections/reorder", api.reorderSections, instr...)
	g.PATCH("/courses/:id/sections/:sid", api.updateSection, instr...)
	g.DELETE("/courses/:id/sections/:sid", api.destroySection, instr...)
	g.POST("/courses/:id/sections/:sid/publish", api.publishSection, instr...)

	g.POST("/courses/:id/sections/:sid/resources", api.addResource, instr...)
	g.DELETE("/courses/:id/sections/:sid/resources/:rid", api.destroyResource, instr...)
	g.POST("/courses/:id/sections/:sid/questions", api.addQuestion, instr...)
	g.DELETE("/courses/:id/sections/:sid/questions/:qid", api.destroyQuestion, instr...)
}

// Catalog handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("category_id", &filter.CategoryID).
		String("level_id", &filter.LevelID).
		BindError()
	if err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	if v := ctx.QueryParam("is_free"); v != "" {
		isFree, err := strconv.ParseBool(v)
		if err != nil {
			return ctx.JSON(http.StatusOK, []course.Course{})
		}
		filter.IsFree = &isFree
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryPublished(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) overview(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	ov, err := api.learningSvc.CourseOverview(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

// Authoring handlers

func (api *courseApi) queryOwned(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryOwned(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying owned courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieveOwned(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetOwned(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting owned course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) publish(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Publish(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) addSection(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.NewSection
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.AddSection(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding section")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *courseApi) updateSection(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateSection
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSection")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSection(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), data)
	if err != nil {
		return errors.Wrap(err, "updating section")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *courseApi) destroySection(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSection(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid")); err != nil {
		return errors.Wrap(err, "deleting section")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) publishSection(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.PublishSection(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"))
	if err != nil {
		return errors.Wrap(err, "publishing section")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *courseApi) reorderSections(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.ReorderSections
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderSections")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sections, err := api.svc.ReorderSections(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reordering sections")
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *courseApi) addResource(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.NewResource
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.AddResource(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), data)
	if err != nil {
		return errors.Wrap(err, "adding resource")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *courseApi) destroyResource(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	err = api.svc.DeleteResource(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), ctx.Param("rid"))
	if err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addQuestion(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *courseApi) destroyQuestion(ctx echo.Context) error {
	usr, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	err = api.svc.DeleteQuestion(ctx.Request().Context(), usr.ID, ctx.Param("id"), ctx.Param("sid"), ctx.Param("qid"))
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
