package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/service/audit"
	"github.com/opticheck/screening-api/pkg/auth"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
)

// ContextClaimsKey is where the auth middleware stores the verified
// token claims for downstream handlers.
const ContextClaimsKey = "auth_claims"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes the JSON error response for a service failure. Auth
// failures collapse to a generic 401 so the body never reveals whether
// a credential was unknown, wrong or expired.
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid credentials"))
		return
	case errors.Is(err, model.ErrAccountLocked):
		c.JSON(http.StatusLocked, NewErrorResponse(err.Error()))
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(statusFor(appErr.Code), NewErrorResponse(appErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// CurrentActor builds the audit actor from the verified claims the auth
// middleware stored on the context plus the request's network details.
// On unauthenticated routes it carries only IP and user agent.
func CurrentActor(c *gin.Context) audit.Actor {
	actor := audit.Actor{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if v, ok := c.Get(ContextClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			actor.ID = claims.UserID
			actor.Email = claims.Email
			actor.Portal = claims.Portal
		}
	}
	return actor
}
