package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// mapTaxonomy translates the service error taxonomy to an HTTP error.
func mapTaxonomy(err error) *apierr.Error {
	switch {
	case errors.Is(err, aggregates.ErrValidation):
		return apierr.New(http.StatusBadRequest, "validation", err)
	case errors.Is(err, aggregates.ErrInsufficientBalance):
		return apierr.New(http.StatusPaymentRequired, "insufficient_balance", err)
	case errors.Is(err, aggregates.ErrUnauthorized):
		return apierr.New(http.StatusForbidden, "forbidden", err)
	case errors.Is(err, aggregates.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, aggregates.ErrConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	case errors.Is(err, aggregates.ErrInvalidState):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_state", err)
	case errors.Is(err, aggregates.ErrRetryable):
		return apierr.New(http.StatusServiceUnavailable, "retryable", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal", err)
	}
}

// RespondMapped renders err through the taxonomy mapping. Errors that
// already carry an HTTP status win over the mapping.
func RespondMapped(c *gin.Context, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		ae = mapTaxonomy(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
