package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conceptgraph/reasoner/internal/reasoning/apierr"
)

// errorResponse is the JSON envelope every non-2xx response uses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Code: statusCode(status), Message: message})
}

func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// handleErr maps the reasoning error taxonomy to an HTTP status
// and writes the response, returning so callers can `return` immediately.
func handleErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apierr.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apierr.ErrStoreUnavailable):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, apierr.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
