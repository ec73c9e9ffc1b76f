package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/config"
	jwthelp "github.com/Skotchmaster/auth_service/internal/jwt"
	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies config.CookieConfig
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.Svc.Register(ctx, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	h.setSession(c, sess)
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: sess.UserID})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.setSession(c, sess)
	return c.JSON(http.StatusOK, transport.IDResponse{ID: sess.UserID})
}

func (h *AuthHTTP) Self(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	user, err := h.Svc.Self(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	claims, ok := middleware.RefreshClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	sess, err := h.Svc.Refresh(c.Request().Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "User with the token could not find")
		}
		return httpError(err)
	}

	h.setSession(c, sess)
	return c.JSON(http.StatusOK, transport.IDResponse{ID: sess.UserID})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	claims, ok := middleware.RefreshClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	if err := h.Svc.Logout(c.Request().Context(), claims); err != nil {
		return httpError(err)
	}

	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, h.Cookies))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, h.Cookies))
	return c.JSON(http.StatusOK, echo.Map{})
}

func (h *AuthHTTP) setSession(c echo.Context, sess *service.Session) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, sess.AccessToken, sess.AccessTTL, h.Cookies))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, sess.RefreshToken, sess.RefreshTTL, h.Cookies))
}

// httpError maps service errors onto HTTP statuses. Unknown errors pass through and are
// rendered as 500 by ErrorHandler.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTenantNameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "The token has been revoked")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTenantNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return err
	}
}
