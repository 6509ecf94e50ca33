package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrLineExists is returned when a cart change would duplicate an existing variant line.
	ErrLineExists = errors.New("cart line already exists")
	// ErrNotAuthenticated is returned by operations that require a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoPendingVerification is returned when there is no OTP awaiting verification.
	ErrNoPendingVerification = errors.New("no pending verification")
	// ErrOtpExpired ends the pending verification; a new OTP must be requested.
	ErrOtpExpired = errors.New("otp expired")
	// ErrOtpAttemptsExceeded ends the pending verification after too many wrong codes.
	ErrOtpAttemptsExceeded = errors.New("too many otp attempts")
)

// ValidationError describes bad user input. It is shown inline and never fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidOTPError is a wrong code that still leaves attempts.
type InvalidOTPError struct {
	Remaining int
}

func (e *InvalidOTPError) Error() string {
	return fmt.Sprintf("invalid otp: %d attempts remaining", e.Remaining)
}

// CooldownError is returned when a resend is requested too early.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("resend available in %ds", int(e.Remaining.Round(time.Second).Seconds()))
}

// GatewayError wraps a failure talking to the remote catalog.
type GatewayError struct {
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("catalog %s: timeout: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("catalog %s: unexpected status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the upstream call timed out.
func (e *GatewayError) IsTimeout() bool {
	return e.Timeout
}
