// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an error to its HTTP status.  Server-side failures are
// masked so internals never leak to callers.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code.String(),
		Message: message,
	})
}

// respondValidationError rejects a bad request with a caller-visible message.
func respondValidationError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Code:    errors.ErrCodeValidation.String(),
		Message: message,
	})
}
