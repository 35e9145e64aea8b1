package handlers

import (
	"errors"
	"net/http"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgServerError = "Server error"

type errorResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Errors  []e.FieldError `json:"errors,omitempty"`
}

// writeError maps a service error onto its status and client message.
// notFound is the message used for ErrNotFound. Unexpected errors are logged
// and reported without detail.
func writeError(c *gin.Context, logger *zap.Logger, err error, notFound string) {
	status, message := mapServiceError(err, notFound)

	resp := errorResponse{Message: message}
	var verr *e.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
	}
	c.AbortWithStatusJSON(status, resp)
}

func mapServiceError(err error, notFound string) (int, string) {
	var verr *e.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, e.ErrDuplicateEmail):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, e.ErrDuplicateMobile):
		return http.StatusConflict, "Mobile number already registered"
	case errors.Is(err, e.ErrDuplicateIdentity):
		return http.StatusConflict, "Duplicate value"
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, e.ErrMissingToken):
		return http.StatusUnauthorized, "No token, authorization denied"
	case errors.Is(err, e.ErrInvalidToken):
		return http.StatusUnauthorized, "Token is not valid"
	case errors.Is(err, e.ErrCodeRejected):
		return http.StatusUnauthorized, "Invalid verification code"
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, e.ErrAlreadyClaimed):
		return http.StatusConflict, "Company already claimed"
	case errors.Is(err, e.ErrProviderUnavailable):
		return http.StatusBadGateway, "Verification provider unavailable"
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
