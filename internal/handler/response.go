package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/service"
	"github.com/arunprabus/health-api/pkg/logger"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Error writes a JSON error body with the given status.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}

func writeServiceError(c echo.Context, err error) error {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: vErr.Message, Field: vErr.Field})
	}

	status, message := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrInvalid):
		status, message = http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, "resource not found"
	case errors.Is(err, service.ErrConflict):
		status, message = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUpstream):
		status, message = http.StatusBadGateway, "upstream service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "module", "handler", "action", "respond", "resource", "http",
			"result", "failed", "method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
	}
	return c.JSON(status, errorResponse{Error: message})
}
