package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
)

type courseApi struct {
	svc           *course.Service
	assignmentSvc *assignment.Service
	alertSvc      *alert.Service
	usrSvc        *user.Service
	validate      *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	assignmentSvc *assignment.Service,
	alertSvc *alert.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
) {
	api := courseApi{svc: svc, assignmentSvc: assignmentSvc, alertSvc: alertSvc, usrSvc: usrSvc, validate: validate}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)

	dg := cg.Group("/:id", courseMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.POST("/users", api.enroll)
	dg.GET("/assignments", api.queryAssignments)
	dg.GET("/alerts", api.queryAlerts, adminMiddleware())
}

// courseMiddleware loads the course named by the `:id` param into the context.
func courseMiddleware(svc *course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return errHttpNotFound
			}
			c, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if err == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course")
			}
			ctx.Set("course", c)
			return next(ctx)
		}
	}
}

func contextCourse(ctx echo.Context) course.Course {
	c, _ := ctx.Get("course").(course.Course)
	return c
}

func (api *courseApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || ctxUsr.IsInstructor()) {
		return errHttpForbidden
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	var c course.Course
	if ctxUsr.IsAdmin() {
		c, err = api.svc.Create(ctx.Request().Context(), data)
	} else {
		c, err = api.svc.CreateTaughtBy(ctx.Request().Context(), data, ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextCourse(ctx))
}

func (api *courseApi) enroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.Enrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Enrollment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cu, err := api.svc.Enroll(ctx.Request().Context(), contextCourse(ctx), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "enrolling user")
	}
	return ctx.JSON(http.StatusCreated, cu)
}

func (api *courseApi) queryAssignments(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	assignments, err := api.assignmentSvc.QueryByCourse(ctx.Request().Context(), contextCourse(ctx).Slug, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *courseApi) queryAlerts(ctx echo.Context) error {
	alerts, err := api.alertSvc.QueryByCourse(ctx.Request().Context(), contextCourse(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying alerts")
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	return ctx.JSON(http.StatusOK, alerts)
}
