package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/registration"
	identitysvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/identity"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		Validator       *core.Validator
		Gate            *access.Gate
		Identity        *identitysvc.Provider
		RegistrationSvc *registration.Service
		AppointmentSvc  *appointment.Service
		MessageSvc      *message.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	// raw error messages in DEV only: tests check the client facing ones
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{
		middleware.JWTWithConfig(middleware.JWTConfig{
			SigningKey:    s.deps.Identity.SigningKey(),
			SigningMethod: s.deps.Identity.SigningMethod(),
			ContextKey:    tokenContextKey,
			Claims:        new(identitysvc.Claims),
		}),
		sessionMiddleware(s.deps.Identity, s.deps.Gate),
	}

	registerAuthAPI(v1, authed, s.deps)
	registerUserAPI(v1, authed, s.deps)
	registerAppointmentAPI(v1, authed, s.deps)
	registerMessageAPI(v1, authed, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
