package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
)

const metricsPath = "/metrics"

type (
	Options struct {
		Conf       *core.Config
		Logger     core.Logger
		Translator ut.Translator
		Validate   *validator.Validate
		// Registry collects the request metrics served on /metrics. Defaults to a new registry.
		Registry *prometheus.Registry

		UserSvc       *user.Service
		CourseSvc     *course.Service
		AssignmentSvc *assignment.Service
		AlertSvc      *alert.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *Auth
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API. A shutdown error raised by a handler is sent on shutdown.
func NewServer(opts *Options, shutdown chan<- error) (Server, error) {
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: NewAuth(opts.Conf),
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	signalShutdown := func() {
		if shutdown != nil {
			shutdown <- core.NewShutdownError("integrity issue")
		}
	}
	if err := s.setup(signalShutdown); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) setup(signalShutdown func()) error {
	conf := s.opts.Conf

	metrics, err := newRequestMetrics(s.opts.Registry)
	if err != nil {
		return err
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metrics.middleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET(metricsPath, echo.WrapHandler(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))

	v1 := s.app.Group("/v1")
	jwt := s.auth.Middleware()

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc, s.opts.Validate)
	registerCourseAPI(v1, jwt, s.opts.CourseSvc, s.opts.AssignmentSvc, s.opts.AlertSvc, s.opts.UserSvc, s.opts.Validate)
	registerAssignmentAPI(v1, jwt, s.opts.AssignmentSvc, s.opts.UserSvc, s.opts.Validate)
	registerAlertAPI(v1, jwt, s.opts.AlertSvc, s.opts.UserSvc, s.opts.Validate)
	return nil
}

func (s *server) Start() error {
	err := s.app.Start(s.opts.Conf.Server.Host)
	if err == http.ErrServerClosed {
		return nil
	}
	return errors.Wrap(err, "starting server")
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Coursedash API!")
}
