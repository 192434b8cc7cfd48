package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/http/response"
	domainerrors "gatekeeper/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware turns every error escaping a handler into the unified
// error body. It is installed as echo's HTTPErrorHandler so handlers and
// middleware can simply return domain errors.
type ErrorMiddleware struct {
	logger     *slog.Logger
	production bool
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger, cfg *config.Config) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger:     logger,
		production: cfg.IsProduction(),
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := response.ErrorBody{
		Status:    response.StatusError,
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
		Method:    c.Request().Method,
	}

	statusCode := http.StatusInternalServerError

	var appErr domainerrors.AppError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &appErr):
		statusCode = appErr.HTTPCode()
		body.Message = appErr.Message()
		body.Code = appErr.ErrorCode()
		body.Details = appErr.Details()
	case errors.As(err, &httpErr):
		statusCode = httpErr.Code
		body.Message = fmt.Sprintf("%v", httpErr.Message)
		body.Code = "HTTP_ERROR"
	default:
		body.Message = "Internal server error"
		body.Code = "INTERNAL_ERROR"
	}

	// Unexpected errors are logged with their cause; expected rejections
	// are already logged where they happen.
	if statusCode >= http.StatusInternalServerError {
		m.logger.Error("Unhandled error",
			slog.Any("error", err),
			slog.String("path", body.Path),
			slog.String("method", body.Method),
		)
	}

	// Stack traces never leave the service in production.
	if !m.production {
		body.Stack = fmt.Sprintf("%+v", err)
	}

	if writeErr := c.JSON(statusCode, body); writeErr != nil {
		m.logger.Error("Failed to write error response", slog.Any("error", writeErr))
	}
}
