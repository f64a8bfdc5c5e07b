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
	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/calendar"
	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/schedule"
	"github.com/trezcool/freetime/core/user"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		UserSvc     user.Service
		ProfileSvc  profile.Service
		ScheduleSvc schedule.Service
		GroupSvc    group.Service
		EventSvc    event.Service
		CalendarSvc calendar.Service
		Theme       calendar.Theme

		MediaDir       string // served under /media when set (local object store)
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(metricsMiddleware)
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.deps.ProfileSvc, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(metricsHandler()))
	if s.deps.MediaDir != "" {
		s.app.Static("/media", s.deps.MediaDir)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerUserAPI(v1, jwt, s.auth, s.deps.UserSvc, s.deps.Validate)
	registerProfileAPI(v1, jwt, s.deps.ProfileSvc, s.deps.CalendarSvc, s.deps.Validate, conf.Server.MaxUploadSize)
	registerScheduleAPI(v1, jwt, s.deps.ScheduleSvc, s.deps.CalendarSvc, s.deps.Validate)
	registerGroupAPI(v1, jwt, groupApiDeps{
		svc:         s.deps.GroupSvc,
		profileSvc:  s.deps.ProfileSvc,
		calendarSvc: s.deps.CalendarSvc,
		eventSvc:    s.deps.EventSvc,
		theme:       s.deps.Theme,
		validate:    s.deps.Validate,
		joinLimiter: newUserRateLimiter(conf.RateLimit.JoinPerMinute, conf.RateLimit.JoinBurst),
	})
	registerEventAPI(v1, jwt, s.deps.EventSvc, s.deps.Validate)
}

// Start listens on the configured address until Shutdown or Close is called.
// Listener failures are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
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
	return ctx.String(http.StatusOK, "Welcome to FreeTime API!")
}
