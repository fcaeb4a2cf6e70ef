package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/user"
)

type alertApi struct {
	svc      *alert.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerAlertAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *alert.Service, usrSvc *user.Service, validate *validator.Validate) {
	api := alertApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/alerts", jwt)
	ag.POST("/instructor-notification", api.notifyInstructors)
}

// notifyInstructors responds with the created alert; a failed delivery shows in its status.
func (api *alertApi) notifyInstructors(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = alert.CheckSender(ctxUsr); err != nil {
		return err
	}

	var data alert.Notification
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Notification")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.NotifyInstructors(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "notifying instructors")
	}
	return ctx.JSON(http.StatusCreated, a)
}
