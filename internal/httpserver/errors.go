package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type ErrorItem struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// ErrorHandler renders every error as {"errors":[...]}. Validation failures carry one entry
// per field; anything that is not an *echo.HTTPError is reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

func render(err error) (int, ErrorResponse) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		items := make([]ErrorItem, 0, len(verrs))
		for _, fe := range verrs {
			items = append(items, ErrorItem{
				Type:     "field",
				Msg:      fieldMessage(fe),
				Path:     fe.Field(),
				Location: "body",
			})
		}
		return http.StatusBadRequest, ErrorResponse{Errors: items}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			var inner *echo.HTTPError
			if errors.As(he.Internal, &inner) {
				he = inner
			}
		}
		return he.Code, ErrorResponse{Errors: []ErrorItem{{
			Type: errorName(he.Code),
			Msg:  message(he),
		}}}
	}

	return http.StatusInternalServerError, ErrorResponse{Errors: []ErrorItem{{
		Type: errorName(http.StatusInternalServerError),
		Msg:  "Internal server error",
	}}}
}

// errorName gives the class-style name for a status, e.g. 404 -> "NotFoundError".
func errorName(code int) string {
	name := strings.ReplaceAll(http.StatusText(code), " ", "")
	if name == "" {
		return "HttpError"
	}
	if strings.HasSuffix(name, "Error") {
		return name
	}
	return name + "Error"
}

func message(he *echo.HTTPError) string {
	if he.Code >= http.StatusInternalServerError {
		return "Internal server error"
	}
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}
