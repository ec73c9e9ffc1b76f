package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/pkg/jwks"
	loggingmw "github.com/Skotchmaster/auth_service/pkg/middleware/logging"
)

type Deps struct {
	Logger *slog.Logger

	AuthHandler   *AuthHTTP
	TenantHandler *TenantHTTP
	UserHandler   *UserHTTP

	// KeySet publishes the JWKS document; KeyFunc verifies access tokens against it.
	KeySet  func() (jwks.Set, error)
	KeyFunc jwt.Keyfunc
	Issuer  string

	RefreshSecret []byte
	Revocation    middleware.RevocationChecker

	Ready func(ctx context.Context) error
}

// New builds the echo instance with the shared middleware stack and all routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(d.Logger, "/health", "/metrics"))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/.well-known/jwks.json", func(c echo.Context) error {
		set, err := d.KeySet()
		if err != nil {
			return err
		}
		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
		return c.JSON(http.StatusOK, set)
	})

	access := middleware.AccessGate(d.KeyFunc, d.Issuer)
	refresh := middleware.RefreshGate(d.RefreshSecret, d.Issuer, d.Revocation)
	adminOnly := middleware.CanAccess(models.RoleAdmin)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/self", d.AuthHandler.Self, access)
	auth.POST("/refresh", d.AuthHandler.Refresh, refresh)
	auth.POST("/logout", d.AuthHandler.Logout, refresh)

	tenants := e.Group("/tenants", access, adminOnly)
	tenants.POST("", d.TenantHandler.Create)
	tenants.GET("", d.TenantHandler.List)
	tenants.GET("/:id", d.TenantHandler.Get)
	tenants.PATCH("/:id", d.TenantHandler.Update)
	tenants.DELETE("/:id", d.TenantHandler.Delete)

	users := e.Group("/users", access, adminOnly)
	users.POST("", d.UserHandler.Create)
	users.GET("", d.UserHandler.List)
	users.GET("/:id", d.UserHandler.Get)
	users.PATCH("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete)
}
