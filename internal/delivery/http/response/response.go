// Package response defines the wire shapes every handler returns, so
// clients can branch on a stable envelope instead of per-endpoint bodies.
package response

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// StatusSuccess marks a successful response envelope.
	StatusSuccess = "success"
	// StatusError marks an error response envelope.
	StatusError = "error"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorBody is the body of every error response. Timestamp, path and method
// are always present; code and details only when the error carries them.
// Stack is populated outside production only.
type ErrorBody struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Stack     string    `json:"stack,omitempty"`
}

// Success writes a success envelope with the given HTTP status code.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, Envelope{
		Status: StatusSuccess,
		Data:   data,
	})
}

// OK writes a 200 success envelope.
func OK(c echo.Context, data any) error {
	return Success(c, http.StatusOK, data)
}

// Created writes a 201 success envelope.
func Created(c echo.Context, data any) error {
	return Success(c, http.StatusCreated, data)
}

// NoContent writes a 204 response with an empty body.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
