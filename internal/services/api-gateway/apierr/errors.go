// Package apierr maps usecase and storage errors to HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/repoerr"
	"github.com/gin-gonic/gin"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid input")
)

func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalid), errors.Is(err, event.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repoerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repoerr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write aborts the request with the mapped status. Internal errors are
// attached to the gin context for the access log and never echoed.
func Write(c *gin.Context, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// BadRequest reports a binding or parameter error.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
