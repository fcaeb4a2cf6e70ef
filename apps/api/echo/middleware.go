package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/coursedash/core"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.IsAdmin {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// requestMetrics counts handled requests by method, route and status.
type requestMetrics struct {
	requestCount *prometheus.CounterVec
}

func newRequestMetrics(reg prometheus.Registerer) (*requestMetrics, error) {
	m := &requestMetrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
	}
	if err := reg.Register(m.requestCount); err != nil {
		return nil, errors.Wrap(err, "registering request counter")
	}
	return m, nil
}

func (m *requestMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if ctx.Path() == metricsPath {
			return next(ctx)
		}

		err := next(ctx)

		status := ctx.Response().Status
		if err != nil {
			// the error handler has not written the response yet
			status = errorStatus(err)
		}
		m.requestCount.WithLabelValues(ctx.Request().Method, ctx.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}

// errorStatus is the status code the error handler responds with for err.
func errorStatus(err error) int {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized
		}
		return origErr.Code
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	case *core.RuleError:
		if code, ok := ruleStatusCodes[origErr.Kind]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}
