package httpserver

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront/internal/domain"
	"storefront/internal/listing"
	"storefront/internal/pagination"
	"storefront/internal/service/auth"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Remaining *int   `json:"remainingAttempts,omitempty"`
	RetryIn   *int   `json:"retryIn,omitempty"`
}

// writeError maps err onto a status and a user-facing message.
func writeError(c *gin.Context, logger zerolog.Logger, err error) {
	status, body := classify(err)
	if body.RetryIn != nil {
		c.Header("Retry-After", strconv.Itoa(*body.RetryIn))
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func classify(err error) (int, errorBody) {
	var (
		validation *domain.ValidationError
		invalidOTP *domain.InvalidOTPError
		cooldown   *domain.CooldownError
		gateway    *domain.GatewayError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorBody{Code: "validation", Message: validation.Message, Field: validation.Field}
	case errors.Is(err, pagination.ErrInvalidLimit), errors.Is(err, pagination.ErrInvalidPage):
		return http.StatusBadRequest, errorBody{Code: "validation", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: "not_found", Message: "Not found"}
	case errors.Is(err, domain.ErrLineExists):
		return http.StatusConflict, errorBody{Code: "line_exists", Message: "This item is already in your cart"}
	case errors.Is(err, domain.ErrNoPendingVerification):
		return http.StatusConflict, errorBody{Code: "no_pending_verification", Message: "Please request a new OTP"}
	case errors.Is(err, auth.ErrAlreadyAuthenticated):
		return http.StatusConflict, errorBody{Code: "already_authenticated", Message: "You are already logged in"}
	case errors.Is(err, listing.ErrNotConfigured):
		return http.StatusConflict, errorBody{Code: "list_not_configured", Message: "No product list selected"}
	case errors.As(err, &invalidOTP):
		remaining := invalidOTP.Remaining
		return http.StatusUnprocessableEntity, errorBody{
			Code:      "invalid_otp",
			Message:   "Invalid OTP. " + strconv.Itoa(remaining) + " attempts remaining.",
			Remaining: &remaining,
		}
	case errors.Is(err, domain.ErrOtpExpired):
		return http.StatusGone, errorBody{Code: "otp_expired", Message: "OTP expired. Please request a new one."}
	case errors.Is(err, domain.ErrOtpAttemptsExceeded):
		return http.StatusGone, errorBody{Code: "otp_attempts_exceeded", Message: "Too many failed attempts. Please request a new OTP."}
	case errors.As(err, &cooldown):
		seconds := int(math.Ceil(cooldown.Remaining.Seconds()))
		return http.StatusTooManyRequests, errorBody{
			Code:    "resend_cooldown",
			Message: "Please wait " + strconv.Itoa(seconds) + " seconds before requesting a new OTP",
			RetryIn: &seconds,
		}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorBody{Code: "not_authenticated", Message: "Please log in first"}
	case errors.Is(err, errTooManySessions):
		return http.StatusServiceUnavailable, errorBody{Code: "session_limit", Message: "Too many open sessions. Please try again later."}
	case errors.As(err, &gateway):
		if gateway.IsTimeout() {
			return http.StatusGatewayTimeout, errorBody{Code: "gateway_timeout", Message: "The catalog took too long to respond. Please try again."}
		}
		return http.StatusBadGateway, errorBody{Code: "gateway", Message: "Failed to load products. Please try again."}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal", Message: "Something went wrong"}
	}
}
