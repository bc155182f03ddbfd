package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/minicode/internal/domain/export"
	"github.com/GriffinCanCode/minicode/internal/domain/playground"
	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/domain/sandbox"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, sandbox.ErrConsumed):
		return http.StatusGone
	case errors.Is(err, sandbox.ErrNotFound),
		errors.Is(err, source.ErrUnknownBuffer),
		errors.Is(err, export.ErrUnknownFile):
		return http.StatusNotFound
	case errors.Is(err, relay.ErrStale):
		return http.StatusConflict
	case errors.Is(err, relay.ErrMalformedMessage),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, playground.ErrUnknownCommand),
		errors.Is(err, playground.ErrUnknownShortcut):
		return http.StatusBadRequest
	case errors.Is(err, sandbox.ErrSandboxCreation):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
