package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/user"
)

type assignmentApi struct {
	svc      *assignment.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, usrSvc *user.Service, validate *validator.Validate) {
	api := assignmentApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create)
	ag.DELETE("/:id", api.destroy)

	dg := ag.Group("/:id", assignmentMiddleware(svc))
	dg.PUT("/claim", api.claim)
	dg.PATCH("/status", api.updateStatus)
	dg.PATCH("/update_sandbox_url", api.updateSandboxURL)
}

// assignmentMiddleware loads the assignment named by the `:id` param into the context.
// Non-numeric IDs are resolved from the lookup params.
func assignmentMiddleware(svc *assignment.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			a, err := findAssignment(ctx, svc)
			if err != nil {
				return err
			}
			ctx.Set("assignment", a)
			return next(ctx)
		}
	}
}

func findAssignment(ctx echo.Context, svc *assignment.Service) (assignment.Assignment, error) {
	// read from the query only; the body belongs to the handler
	lookup := assignment.Lookup{
		CourseSlug:   ctx.QueryParam("course_slug"),
		UserID:       ctx.QueryParam("user_id"),
		ArticleTitle: ctx.QueryParam("article_title"),
	}
	if role := ctx.QueryParam("role"); role != "" {
		var err error
		if lookup.Role, err = strconv.Atoi(role); err != nil {
			return assignment.Assignment{}, core.NewValidationError(err, core.FieldError{Field: "role", Error: "must be an integer"})
		}
	}
	a, err := svc.Find(ctx.Request().Context(), ctx.Param("id"), lookup)
	return a, errors.Wrap(err, "finding assignment")
}

func contextAssignment(ctx echo.Context) assignment.Assignment {
	a, _ := ctx.Get("assignment").(assignment.Assignment)
	return a
}

func (api *assignmentApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	a, err := findAssignment(ctx, api.svc)
	if err != nil {
		return err
	}
	if err = api.svc.Destroy(ctx.Request().Context(), ctxUsr, a); err != nil {
		return errors.Wrap(err, "destroying assignment")
	}
	return ctx.JSON(http.StatusOK, DestroyResponse{AssignmentID: a.ID})
}

func (api *assignmentApi) claim(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data ClaimRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClaimRequest")
	}

	a, err := api.svc.Claim(ctx.Request().Context(), ctxUsr, contextAssignment(ctx), data.UserID)
	if err != nil {
		return errors.Wrap(err, "claiming assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) updateStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}

	a, err := api.svc.UpdateStatus(ctx.Request().Context(), contextAssignment(ctx), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) updateSandboxURL(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data SandboxURLRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SandboxURLRequest")
	}

	a, err := api.svc.UpdateSandboxURL(ctx.Request().Context(), ctxUsr, contextAssignment(ctx), data.NewURL)
	if err != nil {
		return errors.Wrap(err, "updating sandbox url")
	}
	return ctx.JSON(http.StatusOK, a)
}

type (
	DestroyResponse struct {
		AssignmentID int `json:"assignmentId"`
	}

	ClaimRequest struct {
		UserID string `json:"user_id"`
	}

	StatusRequest struct {
		Status string `json:"status"`
	}

	SandboxURLRequest struct {
		NewURL string `json:"newUrl"`
	}
)
