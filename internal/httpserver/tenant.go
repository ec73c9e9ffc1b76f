package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type TenantHTTP struct {
	Svc *service.TenantService
}

func (h *TenantHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tenant_create")

	var req transport.TenantRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("tenant_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tenant, err := h.Svc.Create(ctx, service.TenantInput{Name: req.Name, Address: req.Address})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, transport.IDResponse{ID: tenant.ID})
}

func (h *TenantHTTP) List(c echo.Context) error {
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

func (h *TenantHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	tenant, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.TenantRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("tenant_update_error", "handler", "tenant_update", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tenant, err := h.Svc.Update(ctx, id, service.TenantInput{Name: req.Name, Address: req.Address})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.IDResponse{ID: id})
}

func idParam(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid url param.")
	}
	return uint(n), nil
}

func listQuery(c echo.Context) (transport.ListQuery, error) {
	var q transport.ListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "Invalid query params.")
	}
	return q, nil
}
