// Package echoapi serves the Academia API and the role screens with echo.
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

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/user"
)

type (
	Deps struct {
		Conf        *core.Config
		Logger      core.Logger
		UserSvc     user.Service
		LearningSvc *learning.Service
		Revocations session.Revocations // in memory when nil
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     Deps
		app      *echo.Echo
		auth     *Auth
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps Deps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     NewAuth(deps.Conf, deps.Revocations),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	loginLimit := rateLimitMiddleware(newIPRateLimiter(conf.Server.LoginRateLimit, conf.Server.LoginBurst))
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig())
	authed := []echo.MiddlewareFunc{jwt, revocationMiddleware(s.auth)}

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, authed, loginLimit, userApi{
		svc:        s.deps.UserSvc,
		learning:   s.deps.LearningSvc,
		auth:       s.auth,
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
	})
	registerLearningAPI(v1, authed, s.deps.LearningSvc)

	registerScreens(s.app, loginLimit, screens{
		users:    s.deps.UserSvc,
		learning: s.deps.LearningSvc,
		auth:     s.auth,
		gate:     session.NewGate(session.WithVerifier(s.auth)),
		cookie:   conf.Server.SessionCookie,
		secure:   !conf.Debug,
	})
}

func (s *server) Start() {
	s.errors <- s.app.Start(s.deps.Conf.Server.Address)
}

func (s *server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal relays SIGINT and SIGTERM, plus shutdown requests raised while handling requests.
func (s *server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
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
