package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/mw"
)

// errorResponse standardizes error payloads.
type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details []string) {
	c.JSON(status, errorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: mw.GetRequestID(c),
	})
}

// respondDomainError maps domain errors to HTTP responses. Anything that is
// not a domain error is reported as a generic 500.
func respondDomainError(c *gin.Context, err error) {
	var conflict domain.ConflictError
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &conflict):
		respondError(c, http.StatusConflict, "conflict", err.Error(), conflict.Keys)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
