package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/state"
)

// statusFor maps err onto an HTTP status. A payment or finalization failure
// keeps its own status whatever backend error it wraps; only a rejected token
// outranks it, so the UI still gets the login redirect.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, apperr.ErrFinalization):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrCanceled):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNetwork):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrServer):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError renders err and hands over any redirect the orchestrator
// requested.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)

	resp := dto.ErrorResponse{Error: apperr.Message(err), Retryable: apperr.Retryable(err)}
	if status == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	if sc := middleware.GetSession(c); sc.State().Redirect != "" {
		resp.Redirect = sc.State().Redirect
		sc.Dispatch(state.RedirectConsumed{})
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}
