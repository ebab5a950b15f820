package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
)

// DefaultDateResponse is the date pre-filled for a new loo7.
type DefaultDateResponse struct {
	Date string `json:"date"`
}

type loo7Api struct {
	conf *core.Config
	svc  loo7.Service
}

func registerLoo7API(g *echo.Group, auth echo.MiddlewareFunc, conf *core.Config, svc loo7.Service) {
	api := loo7Api{conf: conf, svc: svc}

	lg := g.Group("/loo7", auth)
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.GET("/default-date", api.defaultDate)
	lg.GET("/daily/:date", api.daily)
	lg.GET("/student/:studentId/:date", api.byStudentAndDate)

	dg := lg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/evaluate", api.evaluate)
}

// Handlers

func (api *loo7Api) create(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}

	var data loo7.NewLoo7
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}

	l, err := api.svc.Create(ctx.Request().Context(), ownerID, data)
	if err != nil {
		// an unknown student is bad input here, not a missing resource
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "studentId", Error: "student not found"})
		}
		return errors.Wrap(err, "creating loo7")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *loo7Api) evaluate(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}

	var data loo7.Evaluation
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}

	l, err := api.svc.Evaluate(ctx.Request().Context(), ownerID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "evaluating loo7")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *loo7Api) query(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}

	var filter loo7.QueryFilter
	if err = (&echo.DefaultBinder{}).BindQueryParams(ctx, &filter); err != nil {
		return core.NewValidationError(errors.Wrap(err, "binding query filter"))
	}

	loo7s, err := api.svc.Query(ctx.Request().Context(), ownerID, filter)
	if err != nil {
		return errors.Wrap(err, "querying loo7")
	}
	return ctx.JSON(http.StatusOK, nonNil(loo7s))
}

func (api *loo7Api) defaultDate(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DefaultDateResponse{Date: loo7.DefaultDate(api.conf.Today())})
}

// daily returns the per-student roll-up of a date, students ordered by name.
func (api *loo7Api) daily(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}
	rollup, err := api.svc.DailyRollup(ctx.Request().Context(), ownerID, ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "building daily roll-up")
	}
	return ctx.JSON(http.StatusOK, rollup)
}

func (api *loo7Api) byStudentAndDate(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}
	loo7s, err := api.svc.ListByStudentAndDate(ctx.Request().Context(), ownerID, ctx.Param("studentId"), ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "listing loo7 by student and date")
	}
	return ctx.JSON(http.StatusOK, nonNil(loo7s))
}

func (api *loo7Api) retrieve(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}
	l, err := api.svc.Get(ctx.Request().Context(), ownerID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting loo7")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *loo7Api) destroy(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ownerID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting loo7")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func nonNil(loo7s []loo7.Loo7) []loo7.Loo7 {
	if loo7s == nil {
		return []loo7.Loo7{}
	}
	return loo7s
}
