package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/auth"
	"tfashion-storefront/internal/service/checkout"
	"tfashion-storefront/internal/service/design"
	"tfashion-storefront/internal/task"
)

type errorResponse struct {
	Error   string          `json:"error"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

// statusFor maps a service error to an HTTP status and a customer-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, checkout.ErrIncompleteDetails):
		return http.StatusBadRequest, "Please fill in all delivery details"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials. Password must be at least 6 characters."
	case errors.Is(err, checkout.ErrAuthRequired):
		return http.StatusUnauthorized, "Please sign in to complete your checkout."
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, "Your cart is empty"
	case errors.Is(err, checkout.ErrInProgress), errors.Is(err, task.ErrInFlight):
		return http.StatusConflict, "Already processing, please wait"
	case errors.Is(err, design.ErrInvalidTransition):
		return http.StatusConflict, "That action is not available right now"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "An account with that email already exists"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	case errors.Is(err, checkout.ErrPaymentFailed):
		return http.StatusPaymentRequired, "Payment failed. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return "Invalid request"
	}
	msg = msg[i+len(prefix):]
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (h *handler) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, errorResponse{
		Error:   msg,
		Notices: []notify.Notice{{Level: notify.Error, Message: msg}},
	})
}

func (h *handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:   msg,
		Notices: []notify.Notice{{Level: notify.Error, Message: msg}},
	})
}
