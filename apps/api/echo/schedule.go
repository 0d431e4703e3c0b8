package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/schedule"
)

type scheduleApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, opts *Options) {
	api := scheduleApi{
		svc:      opts.ScheduleSvc,
		validate: opts.Validate,
	}

	g.GET("/schedule", api.list)
	g.GET("/schedule/engineers/:id", api.retrieve)

	admin := []echo.MiddlewareFunc{requireAuth, instructorMiddleware}
	g.POST("/schedule/engineers", api.create, admin...)
	g.PATCH("/schedule/engineers/:id", api.update, admin...)
	g.DELETE("/schedule/engineers/:id", api.destroy, admin...)
	g.POST("/schedule/engineers/:id/times", api.addTime, admin...)
	g.PATCH("/schedule/times/:tid", api.updateTime, admin...)
	g.DELETE("/schedule/times/:tid", api.destroyTime, admin...)
}

func (api *scheduleApi) list(ctx echo.Context) error {
	engineers, err := api.svc.Schedule(ctx.Request().Context(), ctx.QueryParam("day"))
	if err != nil {
		return errors.Wrap(err, "getting schedule")
	}
	return ctx.JSON(http.StatusOK, engineers)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetEngineer(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting engineer")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewEngineer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEngineer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.AddEngineer(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding engineer")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	var data schedule.UpdateEngineer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEngineer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.UpdateEngineer(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating engineer")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteEngineer(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting engineer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) addTime(ctx echo.Context) error {
	var data schedule.NewTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimeSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ts, err := api.svc.AddTimeSlot(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding time slot")
	}
	return ctx.JSON(http.StatusCreated, ts)
}

func (api *scheduleApi) updateTime(ctx echo.Context) error {
	var data schedule.UpdateTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTimeSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ts, err := api.svc.UpdateTimeSlot(ctx.Request().Context(), ctx.Param("tid"), data)
	if err != nil {
		return errors.Wrap(err, "updating time slot")
	}
	return ctx.JSON(http.StatusOK, ts)
}

func (api *scheduleApi) destroyTime(ctx echo.Context) error {
	if err := api.svc.DeleteTimeSlot(ctx.Request().Context(), ctx.Param("tid")); err != nil {
		return errors.Wrap(err, "deleting time slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}
