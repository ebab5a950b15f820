package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/quran"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
	metricsvc "github.com/trezcool/loo7/services/metrics"
)

type (
	// HealthChecker reports whether the record store answers.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *metricsvc.Metrics
		Health     HealthChecker // optional

		SheikhSvc  sheikh.Service
		StudentSvc student.Service
		Loo7Svc    loo7.Service
		QuranSvc   quran.Service
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableRequestLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.Metrics != nil {
		s.app.Use(metricsMiddleware(s.Metrics))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/healthz", s.health)
	if s.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	api := s.app.Group("/api")
	auth := authMiddleware(conf)

	registerAuthAPI(api, auth, conf, s.SheikhSvc, s.Validate)
	registerStudentAPI(api, auth, s.StudentSvc, s.Validate)
	registerLoo7API(api, auth, conf, s.Loo7Svc)
	registerQuranAPI(api, auth, s.QuranSvc)
	registerBackupAPI(api, auth, conf, s.StudentSvc, s.Loo7Svc)
}

// Start listens until the server is shut down; other failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Loo7 API!")
}
