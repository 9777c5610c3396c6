package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CustomHTTPErrorHandler hides internal error details behind a request ID
// the caller can quote back.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	requestID := uuid.New().String()
	c.Set("requestID", requestID)

	c.Logger().Errorf("Request ID: %s | Internal error: %v", requestID, err)

	c.JSON(http.StatusInternalServerError, echo.Map{
		"error":      "Internal server error. Please contact support with the request ID.",
		"request_id": requestID,
	})
}

// RequestIDMiddleware tags every request with an ID for log correlation.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := uuid.New().String()
		c.Set("requestID", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)
		return next(c)
	}
}
