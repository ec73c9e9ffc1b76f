package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("user_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Svc.Create(ctx, service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		TenantID:  req.TenantID,
	})
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: user.ID})
}

func (h *UserHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), q.CurrentPage, q.PerPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("user_update_error", "handler", "user_update", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Svc.Update(ctx, id, service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		TenantID:  req.TenantID,
	})
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.IDResponse{ID: id})
}

// userError reports an unknown tenant reference as a bad request rather than a missing
// resource, since the tenant id came from the body.
func userError(err error) error {
	if errors.Is(err, service.ErrTenantNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return httpError(err)
}
