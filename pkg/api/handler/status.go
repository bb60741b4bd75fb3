package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/api/dto"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// httpStatus maps the engine error taxonomy onto HTTP statuses.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrAuthenticationRequired), errors.Is(err, types.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNoProviderAvailable):
		return http.StatusPaymentRequired
	case errors.Is(err, types.ErrPermissionDenied), errors.Is(err, types.ErrActionLimitExceeded):
		return http.StatusForbidden
	case errors.Is(err, types.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConfirmationRequired), errors.Is(err, store.ErrTerminal):
		return http.StatusConflict
	case errors.Is(err, types.ErrRateLimited), errors.Is(err, types.ErrDailyQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), dto.ErrorResponse{Error: err.Error()})
}
