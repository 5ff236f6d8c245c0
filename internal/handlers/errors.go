package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/services"
	"github.com/rs/zerolog/log"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrJobNotFound, http.StatusNotFound},
	{services.ErrApplicationNotFound, http.StatusNotFound},
	{services.ErrResumeNotAttached, http.StatusNotFound},
	{services.ErrResumeMissing, http.StatusNotFound},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrAdminExists, http.StatusForbidden},
	{services.ErrCannotDeleteAdmin, http.StatusForbidden},
	{services.ErrNotJobOwner, http.StatusForbidden},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrInvalidOTP, http.StatusBadRequest},
	{services.ErrInvalidEmail, http.StatusBadRequest},
	{services.ErrInvalidRole, http.StatusBadRequest},
	{services.ErrEmailTaken, http.StatusBadRequest},
	{services.ErrCannotRemoveSelf, http.StatusBadRequest},
	{services.ErrAlreadyApplied, http.StatusBadRequest},
	{services.ErrInvalidAction, http.StatusBadRequest},
	{services.ErrApplicationWithdrawn, http.StatusBadRequest},
	{services.ErrNotWithdrawable, http.StatusBadRequest},
	{services.ErrLLMUnavailable, http.StatusServiceUnavailable},
	{services.ErrInvalidModelOutput, http.StatusBadGateway},
	{services.ErrMailerUnavailable, http.StatusInternalServerError},
}

// errorResponse maps err to a status and client-facing message. Unknown
// errors become a generic 500 and are logged.
func errorResponse(c *gin.Context, err error) (int, string) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}
	log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request failed")
	return http.StatusInternalServerError, "server error"
}

func respondError(c *gin.Context, err error) {
	status, msg := errorResponse(c, err)
	c.JSON(status, gin.H{"error": msg})
}

// bindJSON decodes the body into dst. An empty body leaves dst zeroed so the
// service reports the missing fields.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return false
	}
	return true
}
