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

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
)

const loginPath = "/v1/auth/login"

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		TenantSvc  tenant.ServiceInterface
		UserSvc    user.ServiceInterface
		StudentSvc student.ServiceInterface
		StaffSvc   staff.ServiceInterface
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps       *ServerDeps
		app        *echo.Echo
		errors     chan error
		shutdownCh chan os.Signal
	}
)

func NewServer(deps *ServerDeps) *Server {
	s := &Server{
		deps:       deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

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

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")

	// tenant resolution runs before everything else under /v1; auth and
	// business logic never see an unresolved (non-deferred) request
	v1.Use(tenantMiddleware(s.deps.TenantSvc, conf))

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	guard := tenantGuardMiddleware(s.deps.Logger)

	registerAuthAPI(v1, s.deps)
	registerUserAPI(v1, jwt, guard, s.deps)
	registerTenantAPI(v1, jwt, guard, s.deps)
	registerStudentAPI(v1, jwt, guard, s.deps)
	registerStaffAPI(v1, jwt, guard, s.deps)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

func (s *Server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
