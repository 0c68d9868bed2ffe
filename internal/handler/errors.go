package handler

import (
	"errors"
	"net/http"

	"sampletrack/internal/domain"
	"sampletrack/internal/metrics"
	"sampletrack/internal/middleware"
	"sampletrack/internal/service"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the response envelope. Unknown
// errors become a generic 500 and are logged.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var ve *domain.ValidationError
	var fe *domain.ForbiddenError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, response.ErrorWithDetails(http.StatusBadRequest, ve.Error(), ve.Errors))
	case errors.As(err, &fe):
		metrics.PermissionDenials.WithLabelValues(fe.Feature, string(fe.Action)).Inc()
		c.JSON(http.StatusForbidden, response.ErrorWithDetails(http.StatusForbidden, fe.Error(), gin.H{
			"feature":       fe.Feature,
			"action":        fe.Action,
			"allowed_roles": fe.AllowedRoles,
		}))
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("requestID")),
		)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actor returns the authenticated caller or writes a 401.
func actor(c *gin.Context) (service.Actor, bool) {
	a, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
	}
	return a, ok
}
