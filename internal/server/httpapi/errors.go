package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorConflict):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError aborts the request with {"error": msg, "status": code}.
// Internal errors are logged and their detail withheld.
func (h *handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := common.Message(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed",
			"error", err, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey))
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "status": status})
}

func badRequest(msg string) error {
	return common.Validation(msg)
}
